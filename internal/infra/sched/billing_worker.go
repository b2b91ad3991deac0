package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/usecase"
)

// BillingWorker periodically runs the billing cycle via the use case.
type BillingWorker struct {
	interval time.Duration
	billing  usecase.BillingUseCase
	log      *zerolog.Logger
}

func NewBillingWorker(interval time.Duration, billing usecase.BillingUseCase, logger *zerolog.Logger) *BillingWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	wlog := logger.With().Str("component", "BillingWorker").Logger()
	return &BillingWorker{
		interval: interval,
		billing:  billing,
		log:      &wlog,
	}
}

func (w *BillingWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting billing worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping billing worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one cycle as of now.
func (w *BillingWorker) Tick(ctx context.Context) {
	res, err := w.billing.RunBillingCycle(ctx, time.Time{})
	switch {
	case errors.Is(err, domain.ErrBillingInProgress):
		w.log.Info().Msg("billing cycle already running elsewhere, skipping tick")
	case err != nil:
		w.log.Error().Err(err).Msg("billing worker error")
	case res.ProcessedCount > 0:
		w.log.Info().
			Str("run_id", res.RunID).
			Int("billed", len(res.Successes)).
			Int("failed", len(res.Failures)).
			Msg("billing tick processed subscriptions")
	}
}
