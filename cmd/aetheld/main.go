// Package main runs the combat core daemon: it loads content, assembles the
// status effect engine and combat facade, and drives status ticks at the
// configured cadence until it receives a termination signal.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/config"
	"github.com/Bam6561/AethelPlugin-sub005/internal/observability"
	"github.com/Bam6561/AethelPlugin-sub005/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	d, cleanup, err := initializeDaemon(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("assembling combat core", zap.Error(err))
	}
	defer cleanup()

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("status-ticks", server.NewContextService(d.driver.Run))

	logger.Info("combat core ready",
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
		zap.Int("workers", cfg.Engine.Workers),
		zap.Bool("persistence", cfg.Database.Enabled),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("daemon stopped with error", zap.Error(err))
	}
}
