package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/markdave123-py/counsel/internal/app"
	"github.com/markdave123-py/counsel/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatalw("invalid configuration", "err", err)
	}

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("startup failed", "err", err)
	}
	defer application.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Server.Start() }()

	logger.Infow("counsel is running", "version", cfg.AppVersion, "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Errorw("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "err", err)
	}
	logger.Info("shutting down...")
}
