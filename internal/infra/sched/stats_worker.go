package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"egas-delivery/internal/infra/metrics"
	"egas-delivery/internal/usecase"
)

// PoolStater is satisfied by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// StatsWorker refreshes the gauges that are read from storage.
type StatsWorker struct {
	interval time.Duration
	stats    usecase.StatsUseCase
	pool     PoolStater
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, stats usecase.StatsUseCase, pool PoolStater, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	wlog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{interval: interval, stats: stats, pool: pool, log: &wlog}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *StatsWorker) Tick(ctx context.Context) {
	if w.pool != nil {
		s := w.pool.Stat()
		metrics.SetDBPoolStats(metrics.PoolSnapshot{
			Max:      s.MaxConns(),
			Total:    s.TotalConns(),
			Idle:     s.IdleConns(),
			Acquired: s.AcquiredConns(),
		})
	}
	counts, err := w.stats.SubscriptionCounts(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("subscription gauge refresh failed")
		return
	}
	metrics.SetSubscriptionsTotal(counts)
}
