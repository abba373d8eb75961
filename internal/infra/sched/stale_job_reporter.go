package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ocr-pro/internal/domain/ports/repository"
	"ocr-pro/internal/infra/metrics"
)

// StaleJobReporter periodically counts jobs stuck in pending. It only reports;
// stuck jobs are never retried or failed automatically.
type StaleJobReporter struct {
	interval time.Duration
	after    time.Duration
	jobs     repository.OCRJobRepository
	log      *zerolog.Logger
	now      func() time.Time
}

func NewStaleJobReporter(interval, after time.Duration, jobs repository.OCRJobRepository, logger *zerolog.Logger) *StaleJobReporter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if after <= 0 {
		after = 15 * time.Minute
	}
	compLog := logger.With().Str("component", "StaleJobReporter").Logger()
	return &StaleJobReporter{
		interval: interval,
		after:    after,
		jobs:     jobs,
		log:      &compLog,
		now:      time.Now,
	}
}

func (w *StaleJobReporter) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("after", w.after).Msg("Starting stale job reporter")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stale job reporter")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *StaleJobReporter) runCheck(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := w.jobs.CountPendingOlderThan(runCtx, nil, w.now().Add(-w.after).UTC())
	if err != nil {
		w.log.Error().Err(err).Msg("stale job check failed")
		return
	}
	metrics.SetStalePending(n)
	if n > 0 {
		w.log.Warn().Int("count", n).Dur("older_than", w.after).Msg("jobs stuck in pending")
	}
}
