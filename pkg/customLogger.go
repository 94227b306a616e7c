package fadc

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler prints records as "[time] [LEVEL] [attr values...] message",
// dropping the attribute keys.
type Handler struct {
	h     slog.Handler
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: o,
		h: slog.NewTextHandler(o, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu: &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu, attrs: merged}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), out: h.out, mu: h.mu, attrs: h.attrs}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Time.Format("[2006/01/02 15:04:05]"))
	sb.WriteString(" [")
	sb.WriteString(r.Level.String())
	sb.WriteString("]")

	writeValue := func(a slog.Attr) bool {
		sb.WriteString(" [")
		sb.WriteString(a.Value.String())
		sb.WriteString("]")
		return true
	}
	for _, a := range h.attrs {
		writeValue(a)
	}
	r.Attrs(writeValue)

	sb.WriteString(" ")
	sb.WriteString(r.Message)
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}
