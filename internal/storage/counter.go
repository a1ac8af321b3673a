package storage

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// MemoryCounter is a process-local counter.
type MemoryCounter struct {
	n atomic.Int64
}

func NewMemoryCounter() *MemoryCounter { return &MemoryCounter{} }

func (c *MemoryCounter) Value(context.Context) (int64, error) { return c.n.Load(), nil }

func (c *MemoryCounter) Increment(context.Context) (int64, error) { return c.n.Add(1), nil }

// RedisCounter keeps the count in a single Redis key so that every instance
// of the counter server shares it.
type RedisCounter struct {
	client *redis.Client
	key    string
}

// NewRedisCounter creates a counter stored under key.
func NewRedisCounter(client *redis.Client, key string) *RedisCounter {
	if key == "" {
		key = "counter"
	}
	return &RedisCounter{client: client, key: key}
}

func (c *RedisCounter) Value(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, c.key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (c *RedisCounter) Increment(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, c.key).Result()
}
