package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/iwvelando/cpi-calculator/internal/calculator"
	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/internal/source"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/output"
	"github.com/iwvelando/cpi-calculator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "path to dotenv file loaded before configuration")
	country := flag.String("country", constants.CountryUK, "country to calculate for: eu, uk, us")
	startFlag := flag.String("start", "", "start month (YYYY-MM)")
	endFlag := flag.String("end", "", "end month (YYYY-MM)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *printConfig {
		if err := conf.Dump(os.Stdout); err != nil {
			logger.Fatal("failed to print configuration",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Determine output format (CLI override takes precedence over config)
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

	// Display any configuration warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	code := strings.ToLower(strings.TrimSpace(*country))
	start, err := cpi.ParseMonthKey(*startFlag)
	if err != nil {
		logger.Fatal("invalid start month",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	end, err := cpi.ParseMonthKey(*endFlag)
	if err != nil {
		logger.Fatal("invalid end month",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	client := fetch.NewClient(&http.Client{Timeout: conf.HTTP.Timeout}, conf.HTTP.UserAgent, logger)
	src, err := source.New(code, conf, client, logger)
	if err != nil {
		logger.Fatal("failed to build source",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := calculator.New(src, conf.HTTP.Timeout, logger).CalculateRate(ctx, start, end)
	if err != nil {
		fmt.Fprintln(os.Stderr, calculator.UserMessage(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	// Handle output.
	report := output.Report{Info: src.Info(), Outcome: outcome}
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, report)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, report)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(os.Stdout, report); err != nil {
			logger.Fatal("failed to write output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
