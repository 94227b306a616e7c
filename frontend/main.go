package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	fadc "github.com/next-exp/fadc500_go/pkg"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
)

var dbConn *sqlx.DB
var configuration fadc.Configuration

var logger fadc.SlogLogger

func init() {
	logger = fadc.NewSlogLogger(slog.LevelDebug)
}

func main() {
	os.Exit(run())
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: frontend -config <config_file> -f <settings_file> -o <output_file_base> (-n <num_events> | -t <duration>)")
	flag.PrintDefaults()
}

func run() int {
	configFilename := flag.String("config", "", "Configuration file path")
	settingsFilename := flag.String("f", "", "Run settings file, overrides settings_file")
	outBase := flag.String("o", "", "Output file base name, overrides file_out")
	nEvents := flag.Int64("n", 0, "Number of events to acquire")
	duration := flag.Duration("t", 0, "Acquisition time, e.g. 10m")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile of the run")
	flag.Usage = usage
	flag.Parse()

	var err error
	configuration, err = fadc.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	fadc.SetLogger(logger)

	if *settingsFilename != "" {
		configuration.SettingsFile = *settingsFilename
	}
	if *outBase != "" {
		configuration.FileOut = *outBase
	}
	if configuration.SettingsFile == "" || configuration.FileOut == "" {
		usage()
		return 1
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		fadc.PrintConfiguration(configuration, logger)
	}

	condition := fadc.StopCondition{Events: *nEvents, Duration: *duration}
	runCtx, err := fadc.NewRunContext(condition)
	if err != nil {
		logger.Error(err.Error())
		usage()
		return 1
	}
	runCtx.PollInterval = configuration.PollInterval()
	runCtx.UnitBytes = configuration.UnitBytes
	runCtx.Verbosity = configuration.Verbosity

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		message := fmt.Sprintf("Unknown profile mode %q", *profileMode)
		logger.Error(message)
		return 1
	}

	settings, err := loadSettings(configuration.SettingsFile)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	settings.LogSummary(logger)

	source, closer, err := openSource(configuration)
	if err != nil {
		message := fmt.Errorf("Error opening source: %w", err)
		logger.Error(message.Error())
		return 1
	}
	defer closer.Close()

	filename := fadc.AcquisitionFilename(configuration.FileOut)
	writer, err := fadc.NewWriter(filename, configuration.CompressionLevel)
	if err != nil {
		message := fmt.Errorf("Error creating output file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error(err.Error())
		}
	}()
	if err := writer.WriteSettings(settings); err != nil {
		logger.Error(err.Error())
		return 1
	}

	if configuration.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		runCtx.Metrics = fadc.NewMetrics(registry)
		server := startMetricsServer(configuration.MetricsAddr, registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				message := fmt.Errorf("metrics server shutdown error: %w", err)
				logger.Error(message.Error())
			}
		}()
	}

	var catalog *fadc.Catalog
	var runID string
	if !configuration.NoDB {
		dbConn, err = fadc.ConnectToDatabase(configuration.DBDriver, configuration.DBDSN)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return 1
		}
		defer dbConn.Close()
		catalog = fadc.NewCatalog(dbConn, configuration.Verbosity)
		if err := catalog.Init(); err != nil {
			logger.Error(err.Error())
			return 1
		}
		runID, err = catalog.StartRun(settings, filename, time.Now())
		if err != nil {
			logger.Error(err.Error())
			return 1
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			logger.Info("Stop requested, finishing current buffer", "main")
			runCtx.Stop()
		}
	}()

	message := fmt.Sprintf("Starting DAQ. Data will be saved to '%s'", filename)
	logger.Info(message, "main")
	summary, runErr := fadc.Acquire(runCtx, source, writer)
	summary.LogReport(logger)

	exitCode := 0
	if runErr != nil {
		message := fmt.Errorf("Acquisition failed: %w", runErr)
		logger.Error(message.Error())
		var transportErr *fadc.TransportError
		if errors.As(runErr, &transportErr) {
			logger.Error(fmt.Sprintf("Transport failed during %s", transportErr.Op))
		}
		exitCode = 1
	}

	if catalog != nil {
		if err := catalog.FinishRun(runID, summary); err != nil {
			logger.Error(err.Error())
			exitCode = 1
		}
	}
	return exitCode
}

// loadSettings reads the run settings and rejects values the module cannot
// run with. Nothing is opened or written before this succeeds.
func loadSettings(filename string) (fadc.RunSettings, error) {
	settings, err := fadc.LoadRunSettings(filename)
	if err != nil {
		return fadc.RunSettings{}, fmt.Errorf("Error reading settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fadc.RunSettings{}, fmt.Errorf("Invalid settings in %s: %w", filename, err)
	}
	return settings, nil
}

func startMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", fadc.MetricsHandler(registry))
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			message := fmt.Errorf("metrics server failed: %w", err)
			logger.Error(message.Error())
		}
	}()
	message := fmt.Sprintf("Serving metrics on %s/metrics", addr)
	logger.Info(message, "main")
	return server
}
