package main

import (
	"context"
	"log"
	"os"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/honeycarbs/remotejobs/internal/app"
	"github.com/honeycarbs/remotejobs/internal/config"
	"github.com/honeycarbs/remotejobs/pkg/logging"
	"github.com/honeycarbs/remotejobs/pkg/shutdown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logger := logging.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := shutdown.OnSignal(context.Background(), logger, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline, cleanup, err := app.InitializePipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "err", err)
		return 1
	}
	defer cleanup()

	logger.Info("starting remote jobs pipeline", "mode", string(cfg.Mode), "snapshot", cfg.SnapshotPath)

	report, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("remote jobs pipeline failed", "state", string(report.State), "err", err)
		return 1
	}

	if report.SnapshotKept {
		logger.Info("jobs saved", "count", report.Fetched, "path", report.SnapshotPath)
	} else {
		logger.Info("jobs loaded", "count", report.Fetched, "sinks", report.Loaded)
	}
	return 0
}
