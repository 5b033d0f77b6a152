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

	"github.com/tpma1205/lifecycle-index-sim/internal/observability"
	"github.com/tpma1205/lifecycle-index-sim/internal/server"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := cfg.Logging.NewLogger(*logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("failed to initialise tracing",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	metrics, err := observability.NewSimulationCollector(nil)
	if err != nil {
		logger.Fatal("failed to initialise metrics collector",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.BodySizeBytes(), version, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting lifecycle server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited",
				zap.String("op", "main"),
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down lifecycle server", zap.String("op", "main"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
