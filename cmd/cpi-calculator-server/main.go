package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/cpi-calculator/internal/calculator"
	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/internal/server"
	"github.com/iwvelando/cpi-calculator/internal/source"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "path to dotenv file loaded before configuration")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	maxRequestSize := flag.String("max-request-size", "", "request body limit override, e.g. 32K")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *address != "" {
		conf.Server.Address = *address
	}
	if *maxRequestSize != "" {
		size, err := config.ParseSize(*maxRequestSize)
		if err != nil {
			logger.Fatal("invalid max request size",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		conf.Server.SetRequestSizeBytes(size)
	}

	client := fetch.NewClient(&http.Client{Timeout: conf.HTTP.Timeout}, conf.HTTP.UserAgent, logger)
	sources, order, err := source.All(conf, client, logger)
	if err != nil {
		logger.Fatal("failed to build sources",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	calculators := make([]*calculator.Calculator, 0, len(order))
	for _, country := range order {
		calculators = append(calculators, calculator.New(sources[country], conf.HTTP.Timeout, logger))
	}
	tracker := calculator.NewTracker(logger, calculators...)

	srv := &http.Server{
		Addr:              conf.Server.Address,
		Handler:           server.NewHandler(logger, tracker, conf.Server.RequestSizeBytes(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("serving web UI",
		zap.String("op", "main"),
		zap.String("address", conf.Server.Address),
		zap.String("version", version),
		zap.Int64("maxRequestSize", conf.Server.RequestSizeBytes()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
