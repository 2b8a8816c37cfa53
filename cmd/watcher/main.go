package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samvad-hq/aoi-inspection-client/internal/app"
	"github.com/samvad-hq/aoi-inspection-client/internal/config"
	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "watcher start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("watcher starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.AppName, cfg.ZipkinURL)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.WarnObj("tracing shutdown failed", "error", err.Error())
		}
	}()

	watcher, err := app.NewWatcher(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize watcher", "error", err.Error())
		return err
	}

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watcher run: %w", err)
	}
	return nil
}
