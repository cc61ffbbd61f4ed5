// Package worker runs the host's scheduled maintenance: the proactive
// cache sweep and the provider-availability refresh.
package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/orchestrator"
)

// MaintenanceWorker drives the periodic cleanup sweep and availability
// refresh.
type MaintenanceWorker struct {
	cache        *cache.Manager
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
	config       *config.Config
	cron         *cron.Cron
}

// NewMaintenanceWorker creates a maintenance worker.
func NewMaintenanceWorker(cacheManager *cache.Manager, orch *orchestrator.Orchestrator, logger zerolog.Logger, cfg *config.Config) *MaintenanceWorker {
	return &MaintenanceWorker{
		cache:        cacheManager,
		orchestrator: orch,
		logger:       logger,
		config:       cfg,
		cron:         cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&cronLogger{logger: logger}))),
	}
}

// Start runs maintenance once immediately, then on the configured
// schedule, until the context is cancelled.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	w.logger.Info().Str("schedule", w.config.CleanupSchedule).Msg("Starting maintenance worker")

	_, err := w.cron.AddFunc(w.config.CleanupSchedule, func() {
		w.runOnce(ctx)
	})
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to add cron job")
		return
	}

	// Session start: establish the availability table before the first
	// request arrives.
	w.runOnce(ctx)

	w.cron.Start()

	<-ctx.Done()
	w.logger.Info().Msg("Stopping maintenance worker")

	cronCtx := w.cron.Stop()
	<-cronCtx.Done()
}

// runOnce performs one maintenance pass.
func (w *MaintenanceWorker) runOnce(ctx context.Context) {
	w.orchestrator.RefreshAvailability(ctx)

	removed, err := w.cache.Cleanup()
	if err != nil {
		w.logger.Error().Err(err).Msg("Cache sweep failed")
		return
	}
	w.logger.Debug().Int("removed", removed).Msg("Maintenance pass completed")
}

// cronLogger adapts zerolog for cron logging.
type cronLogger struct {
	logger zerolog.Logger
}

func (l *cronLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
