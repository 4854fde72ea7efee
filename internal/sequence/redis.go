package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Seeder returns the last number already issued for a series, used when the
// Redis counter is missing (fresh cache, flushed instance).
type Seeder func(ctx context.Context, series string) (int64, error)

// RedisGenerator increments counters in Redis behind a per-series lock.
type RedisGenerator struct {
	client  *redis.Client
	locker  *redislock.Client
	seeder  Seeder
	lockTTL time.Duration
	retry   redislock.RetryStrategy
}

// NewRedisGenerator builds a Redis generator. seeder may be nil.
func NewRedisGenerator(client *redis.Client, seeder Seeder, lockTTL time.Duration) *RedisGenerator {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &RedisGenerator{
		client:  client,
		locker:  redislock.New(client),
		seeder:  seeder,
		lockTTL: lockTTL,
		retry:   redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 200),
	}
}

// Next obtains the series lock, seeds the counter when absent and increments it.
func (g *RedisGenerator) Next(ctx context.Context, series string) (int64, error) {
	if series == "" {
		return 0, errors.New("sequence: series required")
	}
	lock, err := g.locker.Obtain(ctx, shared.SequenceLockKey(series), g.lockTTL, &redislock.Options{RetryStrategy: g.retry})
	if err != nil {
		return 0, fmt.Errorf("sequence: lock %s: %w", series, err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	key := shared.SequenceCounterKey(series)
	exists, err := g.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 && g.seeder != nil {
		seed, err := g.seeder(ctx, series)
		if err != nil {
			return 0, fmt.Errorf("sequence: seed %s: %w", series, err)
		}
		if err := g.client.Set(ctx, key, seed, 0).Err(); err != nil {
			return 0, err
		}
	}
	return g.client.Incr(ctx, key).Result()
}
