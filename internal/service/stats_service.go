package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/memberledger/internal/observability/tracing"
	"github.com/aryan0dhankhar/memberledger/pkg/cache"
)

// MonthlyStatsLimit caps the per-period breakdown
const MonthlyStatsLimit = 12

// StatsCache stores the latest snapshot between writes. Every Invalidate
// bumps the generation, and Set only stores a snapshot whose generation is
// still current, so a slow computation never overwrites a newer write.
type StatsCache interface {
	Get(ctx context.Context) (*domain.Stats, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, stats *domain.Stats, generation int64) error
	Invalidate(ctx context.Context) error
}

// StatsService is the statistics aggregator
type StatsService struct {
	members       domain.MemberRepository
	contributions domain.ContributionRepository
	cache         StatsCache
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewStatsService creates a statistics service. cache may be nil.
func NewStatsService(
	members domain.MemberRepository,
	contributions domain.ContributionRepository,
	statsCache StatsCache,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		members:       members,
		contributions: contributions,
		cache:         statsCache,
		logger:        logger,
		tracer:        tracing.Tracer("stats"),
	}
}

// FormatPeriod renders a period as "<year>-<month>" without zero padding
func FormatPeriod(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// Compute returns the member count, the sum of all contributions and the
// twelve most recent (year, month) groups. A cache failure falls back to
// storage.
func (s *StatsService) Compute(ctx context.Context) (*domain.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.Compute")
	defer span.End()

	generation, cacheable := int64(0), false
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.ObserveStatsCache("error")
			s.logger.Warn("stats cache read failed", slog.String("error", err.Error()))
		case ok:
			metrics.ObserveStatsCache("hit")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return stats, nil
		default:
			metrics.ObserveStatsCache("miss")
		}

		generation, err = s.cache.Generation(ctx)
		if err != nil {
			s.logger.Warn("stats cache generation read failed", slog.String("error", err.Error()))
		} else {
			cacheable = true
		}
	}

	start := time.Now()
	stats, err := s.compute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute stats")
		s.logger.Error("failed to compute stats", slog.String("error", err.Error()))
		return nil, err
	}
	metrics.ObserveStatsCompute(time.Since(start))
	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("stats.periods", len(stats.MonthlyStats)),
	)

	if cacheable {
		if err := s.cache.Set(ctx, stats, generation); err != nil {
			s.logger.Warn("stats cache write failed", slog.String("error", err.Error()))
		}
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*domain.Stats, error) {
	count, err := s.members.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	total, err := s.contributions.Total(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum contributions: %w", err)
	}

	periods, err := s.contributions.PeriodTotals(ctx, MonthlyStatsLimit)
	if err != nil {
		return nil, fmt.Errorf("group contributions: %w", err)
	}

	return &domain.Stats{
		MemberCount:        count,
		ContributionsTotal: total,
		MonthlyStats:       monthlyStats(periods),
	}, nil
}

// monthlyStats orders groups newest first and keeps at most
// MonthlyStatsLimit of them. It never returns nil.
func monthlyStats(periods []domain.PeriodTotal) []domain.MonthlyStat {
	sorted := make([]domain.PeriodTotal, len(periods))
	copy(sorted, periods)
	sortPeriodsDesc(sorted)
	if len(sorted) > MonthlyStatsLimit {
		sorted = sorted[:MonthlyStatsLimit]
	}

	out := make([]domain.MonthlyStat, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, domain.MonthlyStat{
			Period: FormatPeriod(p.Year, p.Month),
			Count:  p.Count,
			Total:  p.Total,
		})
	}
	return out
}

func sortPeriodsDesc(periods []domain.PeriodTotal) {
	slices.SortStableFunc(periods, func(a, b domain.PeriodTotal) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Month, a.Month)
	})
}

// Invalidate drops the cached snapshot. Errors are logged, not returned,
// since the snapshot expires on its own.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", slog.String("error", err.Error()))
	}
}

// MemoryStatsCache keeps the snapshot in process
type MemoryStatsCache struct {
	mu         sync.Mutex
	entries    *cache.Cache[domain.Stats]
	ttl        time.Duration
	generation int64
}

const memoryStatsKey = "stats:snapshot"

// NewMemoryStatsCache creates an in-process statistics cache
func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{entries: cache.New[domain.Stats](), ttl: ttl}
}

func (c *MemoryStatsCache) Get(_ context.Context) (*domain.Stats, bool, error) {
	stats, ok := c.entries.Get(memoryStatsKey)
	if !ok {
		return nil, false, nil
	}
	stats.MonthlyStats = append([]domain.MonthlyStat(nil), stats.MonthlyStats...)
	if stats.MonthlyStats == nil {
		stats.MonthlyStats = []domain.MonthlyStat{}
	}
	return &stats, true, nil
}

func (c *MemoryStatsCache) Generation(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

// Set drops the snapshot when an invalidation happened after generation
// was read.
func (c *MemoryStatsCache) Set(_ context.Context, stats *domain.Stats, generation int64) error {
	snapshot := *stats
	snapshot.MonthlyStats = append([]domain.MonthlyStat(nil), stats.MonthlyStats...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.entries.Set(memoryStatsKey, snapshot, c.ttl)
	return nil
}

func (c *MemoryStatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries.Invalidate("stats:")
	return nil
}
