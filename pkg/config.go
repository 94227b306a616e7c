package fadc

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Configuration holds the program options shared by the frontend and the
// production commands. Module parameters live in RunSettings.
type Configuration struct {
	Verbosity        int     `json:"verbosity"`
	SettingsFile     string  `json:"settings_file"`
	FileOut          string  `json:"file_out"`
	Source           string  `json:"source"`
	ReplayFile       string  `json:"replay_file"`
	SerialPort       string  `json:"serial_port"`
	BaudRate         int     `json:"baud_rate"`
	UnitBytes        int     `json:"unit_bytes"`
	ReplayChunkUnits int     `json:"replay_chunk_units"`
	PollIntervalMs   int     `json:"poll_interval_ms"`
	CompressionLevel int     `json:"compression_level"`
	NoDB             bool    `json:"no_db"`
	DBDriver         string  `json:"db_driver"`
	DBDSN            string  `json:"db_dsn"`
	MetricsAddr      string  `json:"metrics_addr"`
	NumWorkers       int     `json:"num_workers"`
	PedestalSamples  int     `json:"pedestal_samples"`
	NSigma           float64 `json:"n_sigma"`
	PlotsDir         string  `json:"plots_dir"`
}

const (
	SourceReplay = "replay"
	SourceSerial = "serial"
)

func DefaultConfiguration() Configuration {
	return Configuration{
		Verbosity:        0,
		Source:           SourceReplay,
		BaudRate:         115200,
		UnitBytes:        1024,
		ReplayChunkUnits: 64,
		PollIntervalMs:   10,
		CompressionLevel: 4,
		NoDB:             true,
		DBDriver:         "sqlite",
		DBDSN:            "fadc_runs.db",
		NumWorkers:       1,
		PedestalSamples:  50,
		NSigma:           5.0,
	}
}

// LoadConfiguration reads a JSON configuration on top of the defaults. An
// empty filename returns the defaults.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &ErrOpenFile{Filename: filename, Err: err}
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("error parsing configuration %q: %w", filename, err)
	}
	return config, config.Validate()
}

func (c Configuration) Validate() error {
	switch c.Source {
	case SourceReplay, SourceSerial:
	default:
		return &ConfigError{Field: "source", Reason: fmt.Sprintf("unknown source %q", c.Source)}
	}
	if c.UnitBytes <= 0 {
		return &ConfigError{Field: "unit_bytes", Reason: "must be positive"}
	}
	if c.PollIntervalMs <= 0 {
		return &ConfigError{Field: "poll_interval_ms", Reason: "must be positive"}
	}
	if c.NumWorkers <= 0 {
		return &ConfigError{Field: "num_workers", Reason: "must be positive"}
	}
	if c.PedestalSamples <= 0 {
		return &ConfigError{Field: "pedestal_samples", Reason: "must be positive"}
	}
	return nil
}

func (c Configuration) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func PrintConfiguration(config Configuration, l Logger) {
	l.Info(fmt.Sprintf("Settings file: %s", config.SettingsFile), "config")
	l.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	l.Info(fmt.Sprintf("Source: %s", config.Source), "config")
	l.Info(fmt.Sprintf("Replay file: %s", config.ReplayFile), "config")
	l.Info(fmt.Sprintf("Serial port: %s (%d baud)", config.SerialPort, config.BaudRate), "config")
	l.Info(fmt.Sprintf("Unit bytes: %d", config.UnitBytes), "config")
	l.Info(fmt.Sprintf("Poll interval: %d ms", config.PollIntervalMs), "config")
	l.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	l.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	l.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	l.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
	l.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	l.Info(fmt.Sprintf("Pedestal samples: %d", config.PedestalSamples), "config")
	l.Info(fmt.Sprintf("N sigma: %.2f", config.NSigma), "config")
	l.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
