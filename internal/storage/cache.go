package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"htmx-todo/internal/domain"
)

const (
	listGenerationKey  = "todos:list:gen"
	listCacheKeyPrefix = "todos:list:"
)

type backend interface {
	Insert(ctx context.Context, content string) (domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	UpdateContent(ctx context.Context, id, content string) (domain.Todo, error)
	ToggleCompleted(ctx context.Context, id string) (domain.Todo, error)
	List(ctx context.Context) ([]domain.Todo, error)
}

// Cache wraps a store and keeps the List snapshot in Redis until the next
// successful mutation. Snapshots are keyed by a generation counter that every
// successful mutation increments.
// Reads of single todos always go to the backing store.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
}

func (c *Cache) Insert(ctx context.Context, content string) (domain.Todo, error) {
	t, err := c.base.Insert(ctx, content)
	if err != nil {
		return domain.Todo{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) Get(ctx context.Context, id string) (domain.Todo, error) {
	return c.base.Get(ctx, id)
}

func (c *Cache) UpdateContent(ctx context.Context, id, content string) (domain.Todo, error) {
	t, err := c.base.UpdateContent(ctx, id, content)
	if err != nil {
		return domain.Todo{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) ToggleCompleted(ctx context.Context, id string) (domain.Todo, error) {
	t, err := c.base.ToggleCompleted(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) List(ctx context.Context) ([]domain.Todo, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.List(ctx)
	}
	key := listKey(gen)
	if todos, ok := c.loadList(ctx, key); ok {
		return todos, nil
	}

	todos, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}

	// A mutation that lands after the generation was read bumps it, so this
	// snapshot is stored under a key no later List will look at.
	c.storeList(ctx, key, todos)
	return todos, nil
}

// generation returns the current list generation. ok is false when the
// cache cannot be used for this call.
func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, listGenerationKey).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return gen, true
}

func listKey(gen int64) string {
	return listCacheKeyPrefix + strconv.FormatInt(gen, 10)
}

func (c *Cache) loadList(ctx context.Context, key string) ([]domain.Todo, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var todos []domain.Todo
	if err := sonic.Unmarshal(data, &todos); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return todos, true
}

func (c *Cache) storeList(ctx context.Context, key string, todos []domain.Todo) {
	if c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(todos)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

// evict moves the list to a new generation. Snapshots of older generations
// are left to expire.
func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Incr(ctx, listGenerationKey).Err()
}
