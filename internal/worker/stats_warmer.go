package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

// StatsComputer produces the statistics snapshot, filling the cache on a miss
type StatsComputer interface {
	Compute(ctx context.Context) (*domain.Stats, error)
}

// StatsWarmer periodically recomputes the statistics snapshot so that reads
// after a write rarely pay for the aggregation queries.
type StatsWarmer struct {
	stats    StatsComputer
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewStatsWarmer creates a new warmer
func NewStatsWarmer(stats StatsComputer, logger *slog.Logger, interval time.Duration) *StatsWarmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWarmer{
		stats:    stats,
		logger:   logger.With(slog.String("component", "stats_warmer")),
		interval: interval,
		timeout:  10 * time.Second,
	}
}

// Start runs until ctx is cancelled. The first refresh happens immediately.
func (w *StatsWarmer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats warmer started", slog.Duration("interval", w.interval))
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats warmer stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWarmer) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if _, err := w.stats.Compute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("stats refresh failed", slog.String("error", err.Error()))
	}
}
