package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	fadc "github.com/next-exp/fadc500_go/pkg"
)

var configuration fadc.Configuration

var logger fadc.SlogLogger

func init() {
	logger = fadc.NewSlogLogger(slog.LevelDebug)
}

func main() {
	os.Exit(run())
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: production -i <input_file> [-config <config_file>] [-plots <dir>]")
	flag.PrintDefaults()
}

func run() int {
	configFilename := flag.String("config", "", "Configuration file path")
	inputFilename := flag.String("i", "", "Acquisition file to process")
	outputFilename := flag.String("o", "", "Output file, defaults to the input name with .prod before the extension")
	plotsDir := flag.String("plots", "", "Directory for the charge and pulse height plots, overrides plots_dir")
	flag.Usage = usage
	flag.Parse()

	if *inputFilename == "" {
		usage()
		return 1
	}

	var err error
	configuration, err = fadc.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	fadc.SetLogger(logger)
	if *plotsDir != "" {
		configuration.PlotsDir = *plotsDir
	}
	if configuration.Verbosity > 0 {
		fadc.PrintConfiguration(configuration, logger)
	}

	start := time.Now()
	settings, events, err := readInput(*inputFilename)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	message := fmt.Sprintf("Read %d events from %s", len(events), *inputFilename)
	logger.Info(message, "main")

	params, err := fadc.NewAnalysisParams(settings, configuration.PedestalSamples, configuration.NSigma)
	if err != nil {
		message := fmt.Errorf("Invalid analysis parameters: %w", err)
		logger.Error(message.Error())
		return 1
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Polarity: %v, pedestal samples: %d, n sigma: %.2f, time per sample: %.1f ns",
			params.Polarity, params.PedestalSamples, params.NSigma, params.TimePerSample)
		logger.Info(message, "main")
	}

	features := fadc.ProcessEvents(events, params, configuration.NumWorkers)

	output := *outputFilename
	if output == "" {
		output = fadc.ProductionFilename(*inputFilename)
	}
	if err := writeOutput(output, settings, features); err != nil {
		logger.Error(err.Error())
		return 1
	}

	summaries := fadc.SummarizeFeatures(features)
	fadc.LogFeatureSummary(summaries, logger)

	if configuration.PlotsDir != "" {
		files, err := fadc.SavePlots(features, configuration.PlotsDir)
		if err != nil {
			message := fmt.Errorf("Error saving plots: %w", err)
			logger.Error(message.Error())
			return 1
		}
		if configuration.Verbosity > 0 {
			for _, file := range files {
				logger.Info(fmt.Sprintf("Plot saved: %s", file), "main")
			}
		}
	}

	duration := time.Since(start)
	message = fmt.Sprintf("Processing finished. Output: %s. Total time: %d ms", output, duration.Milliseconds())
	logger.Info(message, "main")
	return 0
}

func readInput(filename string) (fadc.RunSettings, []fadc.EventRecord, error) {
	reader, err := fadc.OpenReader(filename)
	if err != nil {
		return fadc.RunSettings{}, nil, err
	}
	defer reader.Close()

	settings, err := reader.ReadSettings()
	if err != nil {
		return fadc.RunSettings{}, nil, err
	}
	events, err := reader.ReadEvents()
	if err != nil {
		return fadc.RunSettings{}, nil, err
	}
	return settings, events, nil
}

func writeOutput(filename string, settings fadc.RunSettings, features []fadc.EventFeatures) error {
	writer, err := fadc.NewFeatureWriter(filename, configuration.CompressionLevel)
	if err != nil {
		return err
	}
	if err := writer.WriteSettings(settings); err != nil {
		writer.Close()
		return err
	}
	if err := writer.WriteFeatures(features); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
