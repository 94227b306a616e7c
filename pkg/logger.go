package fadc

import (
	"io"
	"log/slog"
	"os"
)

type Logger interface {
	Info(message string, module string)
	Error(string)
}

var logger Logger = discardLogger{}

func SetLogger(l Logger) {
	if l == nil {
		l = discardLogger{}
	}
	logger = l
}

type discardLogger struct{}

func (discardLogger) Info(string, string) {}
func (discardLogger) Error(string)        {}

// SlogLogger writes informational messages to InfoLog and errors to ErrorLog.
type SlogLogger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

// NewSlogLogger builds the logger used by the commands: bracketed text on
// stdout and JSON on stderr.
func NewSlogLogger(level slog.Level) SlogLogger {
	return NewSlogLoggerTo(os.Stdout, os.Stderr, level)
}

func NewSlogLoggerTo(stdout io.Writer, stderr io.Writer, level slog.Level) SlogLogger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	return SlogLogger{
		InfoLog:  slog.New(NewHandler(stdout, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(stderr, opts)),
	}
}

func (l SlogLogger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l SlogLogger) Error(message string) {
	l.ErrorLog.Error(message)
}
