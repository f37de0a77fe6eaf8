package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/memberledger/internal/reliability/circuitbreaker"
)

// Redis keys of the statistics snapshot and of its invalidation counter
const (
	StatsKey           = "memberledger:stats:v1"
	StatsGenerationKey = "memberledger:stats:generation"
)

// StatsCache stores the statistics snapshot in redis. Calls go through a
// circuit breaker so a dead redis costs nothing once the circuit opens.
type StatsCache struct {
	client  *Client
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewStatsCache creates a redis-backed statistics cache
func NewStatsCache(client *Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	if logger == nil {
		logger = slog.Default()
	}
	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("redis circuit breaker state change",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetCircuitState("redis", int(to))
	})
	return &StatsCache{client: client, ttl: ttl, breaker: cb, logger: logger}
}

// Get returns the cached snapshot; ok is false on a miss
func (c *StatsCache) Get(ctx context.Context) (*domain.Stats, bool, error) {
	var raw string
	err := c.breaker.Execute(func() error {
		v, err := c.client.Get(ctx, StatsKey)
		if errors.Is(err, redis.Nil) {
			return nil
		}
		raw = v
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("stats cache get: %w", err)
	}
	if raw == "" {
		return nil, false, nil
	}

	var stats domain.Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, false, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, true, nil
}

// Generation returns the invalidation counter, zero when it was never set
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	var generation int64
	err := c.breaker.Execute(func() error {
		var err error
		generation, err = readGeneration(ctx, c.client.rdb)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("stats cache generation: %w", err)
	}
	return generation, nil
}

// Set stores the snapshot with the configured TTL. The write happens in a
// WATCH transaction on the generation key and is skipped when Invalidate
// ran after generation was read.
func (c *StatsCache) Set(ctx context.Context, stats *domain.Stats, generation int64) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	stale := false
	err = c.breaker.Execute(func() error {
		err := c.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := readGeneration(ctx, tx)
			if err != nil {
				return err
			}
			if current != generation {
				stale = true
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, StatsKey, payload, c.ttl)
				return nil
			})
			return err
		}, StatsGenerationKey)
		if errors.Is(err, redis.TxFailedErr) {
			stale = true
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	if stale {
		c.logger.Debug("skipped stale stats snapshot", slog.Int64("generation", generation))
	}
	return nil
}

// Invalidate bumps the generation and drops the cached snapshot
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.breaker.Execute(func() error {
		if _, err := c.client.Incr(ctx, StatsGenerationKey); err != nil {
			return err
		}
		return c.client.Delete(ctx, StatsKey)
	})
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter) (int64, error) {
	generation, err := cmd.Get(ctx, StatsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}
