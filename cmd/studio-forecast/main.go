package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/studio-forecast/internal/config"
	"github.com/iwvelando/studio-forecast/internal/logging"
	"github.com/iwvelando/studio-forecast/internal/projection"
	"github.com/iwvelando/studio-forecast/internal/report"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"github.com/iwvelando/studio-forecast/pkg/output"
	"github.com/iwvelando/studio-forecast/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, xlsx")
	outputFileFlag := flag.String("output-file", "", "write output to this file instead of stdout (xlsx defaults to "+constants.DefaultReportFile+")")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		logging.Fatal(fmt.Sprintf("failed to load configuration at %s", *configLocation), err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		logging.Fatal("failed to initialize logger", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	outputFile := conf.Output.File
	if *outputFileFlag != "" {
		outputFile = *outputFileFlag
	}

	if err := run(logger, conf, outputFormat, outputFile, os.Stdout); err != nil {
		logger.Fatal("failed to write projection",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// run projects the configured assumptions and writes them in format, either
// to outputFile or to stdout.
func run(logger *zap.Logger, conf *config.Configuration, format, outputFile string, stdout io.Writer) error {
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.run"),
		)
	}

	set := conf.AssumptionSet()
	p := projection.Project(set)
	name := conf.DisplayName()

	logger.Debug("projection computed",
		zap.String("op", "main.run"),
		zap.String("name", name),
		zap.Float64("total_startup", p.TotalStartup),
		zap.Int("break_even_month", p.BreakEvenMonth),
	)

	if format == constants.OutputFormatXLSX && outputFile == "" {
		outputFile = constants.DefaultReportFile
	}

	w := stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputFile, err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close output file",
					zap.String("op", "main.run"),
					zap.String("file", outputFile),
					zap.Error(err),
				)
			}
		}()
		w = f
	}

	var err error
	switch format {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(w, name, p)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(w, name, p)
	case constants.OutputFormatXLSX:
		err = report.Write(w, name, set, p)
	default:
		err = validation.ValidateOutputFormat(format)
	}
	if err != nil {
		return err
	}

	if outputFile != "" {
		logger.Info("projection written",
			zap.String("op", "main.run"),
			zap.String("format", format),
			zap.String("file", outputFile),
		)
	}
	return nil
}
