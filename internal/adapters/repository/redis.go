package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/logger"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// defaultRedisKey is the hash holding region -> score.
const defaultRedisKey = "royale:rvs"

// RedisStore wraps an in-memory Store with write-through persistence to
// a Redis hash. Scores survive agent restarts; the learning itself
// still happens in the wrapped store. Persistence failures are logged
// and counted, never propagated: a flaky Redis must not corrupt or
// stall the decision loop.
type RedisStore struct {
	inner  *ShardStore
	client *redis.Client
	key    string
	logger logger.Logger
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisKey overrides the hash key used for persistence.
func WithRedisKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisStore connects to Redis at addr, seeds inner with any
// previously persisted scores, and returns the write-through wrapper.
func NewRedisStore(ctx context.Context, addr string, inner *ShardStore, opts ...RedisOption) (*RedisStore, error) {
	s := &RedisStore{
		inner:  inner,
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    defaultRedisKey,
		logger: logger.Get().Named("region-redis"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	persisted, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load failed: %w", err)
	}
	for region, raw := range persisted {
		score, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			s.logger.Warn(ctx, "dropping unparsable persisted score",
				logger.String("region", region),
				logger.String("value", raw),
			)
			continue
		}
		s.inner.Seed(region, score)
	}
	if len(persisted) > 0 {
		s.logger.Info(ctx, "region scores reloaded",
			logger.Int("regions", len(persisted)),
		)
	}
	return s, nil
}

// Score delegates to the wrapped store.
func (s *RedisStore) Score(ctx context.Context, region string) float64 {
	return s.inner.Score(ctx, region)
}

// Apply updates the wrapped store, then writes the new score through.
func (s *RedisStore) Apply(ctx context.Context, e model.OutcomeEvent) (float64, error) {
	score, err := s.inner.Apply(ctx, e)
	if err != nil {
		return score, err
	}
	if herr := s.client.HSet(ctx, s.key, e.Region, score).Err(); herr != nil {
		metrics.RecordPersistenceError()
		s.logger.Warn(ctx, "region score persistence failed",
			logger.String("region", e.Region),
			logger.Error(herr),
		)
	}
	return score, nil
}

// Best delegates to the wrapped store.
func (s *RedisStore) Best(ctx context.Context, candidates []string, floor float64) (string, bool) {
	return s.inner.Best(ctx, candidates, floor)
}

// Known delegates to the wrapped store.
func (s *RedisStore) Known(ctx context.Context) []string {
	return s.inner.Known(ctx)
}

// Snapshot delegates to the wrapped store.
func (s *RedisStore) Snapshot(ctx context.Context) map[string]float64 {
	return s.inner.Snapshot(ctx)
}

// Count delegates to the wrapped store.
func (s *RedisStore) Count(ctx context.Context) int {
	return s.inner.Count(ctx)
}

// Close flushes the full table one last time and releases the client.
func (s *RedisStore) Close(ctx context.Context) error {
	snapshot := s.inner.Snapshot(ctx)
	if len(snapshot) > 0 {
		fields := make(map[string]interface{}, len(snapshot))
		for region, score := range snapshot {
			fields[region] = score
		}
		if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
			s.logger.Warn(ctx, "final region flush failed", logger.Error(err))
		}
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis close failed: %w", err)
	}
	return nil
}
