package storage

import (
	"context"
	"sync"
	"testing"
)

type counter interface {
	Value(ctx context.Context) (int64, error)
	Increment(ctx context.Context) (int64, error)
}

func TestCounters(t *testing.T) {
	_, client := newTestRedis(t)

	counters := map[string]counter{
		"memory": NewMemoryCounter(),
		"redis":  NewRedisCounter(client, "test-counter"),
	}
	for name, c := range counters {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if n, err := c.Value(ctx); err != nil || n != 0 {
				t.Fatalf("initial value = %d, %v; want 0", n, err)
			}

			const workers = 20
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := c.Increment(ctx); err != nil {
						t.Errorf("increment: %v", err)
					}
				}()
			}
			wg.Wait()

			n, err := c.Increment(ctx)
			if err != nil {
				t.Fatalf("increment: %v", err)
			}
			if n != workers+1 {
				t.Fatalf("expected %d, got %d", workers+1, n)
			}
			if v, _ := c.Value(ctx); v != n {
				t.Fatalf("value %d does not match last increment %d", v, n)
			}
		})
	}
}

func TestRedisCounterDefaultKey(t *testing.T) {
	mr, client := newTestRedis(t)

	c := NewRedisCounter(client, "")
	if _, err := c.Increment(context.Background()); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got, err := mr.Get("counter"); err != nil || got != "1" {
		t.Fatalf("expected counter key to hold 1, got %q, %v", got, err)
	}
}
