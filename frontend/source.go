package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	fadc "github.com/next-exp/fadc500_go/pkg"
)

// openSource opens the transport selected in the configuration. The returned
// closer releases it.
func openSource(config fadc.Configuration) (fadc.ByteSource, io.Closer, error) {
	switch config.Source {
	case fadc.SourceReplay:
		file, err := os.Open(config.ReplayFile)
		if err != nil {
			return nil, nil, &fadc.ErrOpenFile{Filename: config.ReplayFile, Err: err}
		}
		if config.Verbosity > 0 {
			message := fmt.Sprintf("Replaying %s in chunks of %d units", config.ReplayFile, config.ReplayChunkUnits)
			logger.Info(message, "source")
		}
		source := fadc.NewReplaySource(bufio.NewReader(file), config.UnitBytes, config.ReplayChunkUnits)
		return source, file, nil
	case fadc.SourceSerial:
		source, err := fadc.OpenSerialSource(config.SerialPort, config.BaudRate, config.UnitBytes)
		if err != nil {
			return nil, nil, err
		}
		if config.Verbosity > 0 {
			message := fmt.Sprintf("Reading from %s at %d baud", config.SerialPort, config.BaudRate)
			logger.Info(message, "source")
		}
		return source, source, nil
	}
	return nil, nil, &fadc.ConfigError{Field: "source", Reason: fmt.Sprintf("unknown source %q", config.Source)}
}
