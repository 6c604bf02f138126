package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a shared AttemptCounter backed by Redis INCR. Increments
// are atomic across instances, which keeps the max-attempts rule correct in
// multi-instance deployments.
type RedisCounter struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCounter creates a Redis-backed counter store.
func NewRedisCounter(client *redis.Client, ttl time.Duration) *RedisCounter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCounter{
		client: client,
		ttl:    ttl,
		prefix: "signatures:attempts:",
	}
}

// Increment atomically adds one to the key's counter, setting the TTL on
// first increment.
func (c *RedisCounter) Increment(ctx context.Context, key string) (int64, error) {
	redisKey := c.prefix + key

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment attempt counter: %w", err)
	}

	return incr.Val(), nil
}

// Reset clears the key's counter.
func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempt counter: %w", err)
	}
	return nil
}
