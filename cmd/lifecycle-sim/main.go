package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tpma1205/lifecycle-index-sim/internal/config"
	"github.com/tpma1205/lifecycle-index-sim/internal/forecast"
	"github.com/tpma1205/lifecycle-index-sim/internal/optimizer"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/output"
	"github.com/tpma1205/lifecycle-index-sim/pkg/validation"
	"go.uber.org/zap"
)

type cliFlags struct {
	configLocation string
	mode           string
	runs           int
	seed           uint64
	seedSet        bool
	calibrate      bool
	maxWithdrawal  bool
	outputFormat   string
	outputFile     string
	logLevel       string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("lifecycle-sim", flag.ContinueOnError)
	fs.StringVar(&f.configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	fs.StringVar(&f.mode, "mode", "", "simulation mode override: deterministic, montecarlo")
	fs.IntVar(&f.runs, "runs", 0, "Monte Carlo run count override")
	fs.Uint64Var(&f.seed, "seed", 0, "Monte Carlo seed override (omit to keep the configured seed)")
	fs.BoolVar(&f.calibrate, "calibrate", false, "replace the leverage schedule with the calibrated suggestion")
	fs.BoolVar(&f.maxWithdrawal, "max-withdrawal", false, "search for the largest sustainable annual withdrawal")
	fs.StringVar(&f.outputFormat, "output-format", "", "type of output override: pretty, csv, json, pdf")
	fs.StringVar(&f.outputFile, "output-file", "", "write output to this file instead of stdout")
	fs.StringVar(&f.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "seed" {
			f.seedSet = true
		}
	})

	if f.mode != "" {
		if err := validation.ValidateMode(f.mode); err != nil {
			return f, err
		}
	}
	if f.runs != 0 {
		if err := validation.ValidateRunCount(f.runs); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (f cliFlags) options() forecast.Options {
	opts := forecast.Options{
		Mode:          f.mode,
		Runs:          f.runs,
		Calibrate:     f.calibrate,
		MaxWithdrawal: f.maxWithdrawal,
		Withdrawal:    optimizer.Config{},
	}
	if f.seedSet {
		seed := f.seed
		opts.Seed = &seed
	}
	return opts
}

// resolveOutput picks the output format and destination; CLI flags take
// precedence over the configuration file.
func resolveOutput(conf config.OutputConfig, f cliFlags) (string, string, error) {
	format := conf.Format
	if f.outputFormat != "" {
		format = f.outputFormat
	}
	if format == "" {
		format = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		return "", "", err
	}

	file := conf.File
	if f.outputFile != "" {
		file = f.outputFile
	}
	if format == constants.OutputFormatPDF && file == "" {
		return "", "", errors.New("pdf output requires an output file")
	}
	return format, file, nil
}

func writeReport(format, file string, report *output.Report) (err error) {
	var w io.Writer = os.Stdout
	if file != "" {
		f, createErr := os.Create(file)
		if createErr != nil {
			return fmt.Errorf("failed to create output file %s: %v", file, createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close output file %s: %w", file, closeErr)
			}
		}()
		w = f
	}
	return output.Write(w, format, *report)
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid arguments\", \"error\": \"%v\"}\n", err)
		os.Exit(2)
	}

	conf, err := config.LoadConfiguration(flags.configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", flags.configLocation, err)
		os.Exit(1)
	}

	logger, err := conf.Logging.NewLogger(flags.logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	format, file, err := resolveOutput(conf.Output, flags)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	report, err := forecast.GetForecast(context.Background(), logger, *conf, flags.options())
	if err != nil {
		logger.Fatal("failed to compute forecast",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range report.Warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if err := writeReport(format, file, report); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.String("format", format),
			zap.Error(err),
		)
	}
}
