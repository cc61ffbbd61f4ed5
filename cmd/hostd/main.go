package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/api"
	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/orchestrator"
	"github.com/GALIB-Dev/AI-Extension/internal/worker"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	logger.Info().
		Str("version", cfg.Version).
		Str("port", cfg.Port).
		Bool("cloud_enabled", cfg.CloudEnabled).
		Msg("Starting FinLens analysis host")

	// Initialize cache manager
	cacheManager, err := cache.NewManager(cfg.CacheDir, cfg.CacheMemoryCapacity, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize cache manager")
	}
	defer func() {
		if err := cacheManager.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close cache manager")
		}
	}()

	// One orchestrator and one cache per process lifetime, passed to every
	// handler explicitly.
	orch := orchestrator.NewDefault(cacheManager, cfg, logger)

	// Maintenance worker: cache sweep and availability refresh
	maintenance := worker.NewMaintenanceWorker(cacheManager, orch, logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go maintenance.Start(ctx)

	// Initialize API server
	server := api.NewServer(cfg, cacheManager, orch, logger)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("Shutting down gracefully...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown server gracefully")
		}
	}()

	// Start the server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info().Str("address", addr).Msg("Starting API server")

	if err := server.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
