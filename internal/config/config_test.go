package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DEBUG", "REDIS_CONNECTION_STRING", "CACHE_TTL", "DEDUPER_TTL",
		"STORAGE_CONNECTION_STRING", "TODOS_TABLE", "EVENTS_QUEUE", "EVENT_WORKERS", "EVENT_BUFFER",
		"EVENT_HANDOFF_TIMEOUT", "EVENT_PUBLISH_TIMEOUT", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("7070")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != ":7070" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr())
	}
	if cfg.Debug {
		t.Fatalf("expected debug off by default")
	}
	if cfg.CacheTTL != 30*time.Second || cfg.DeduperTTL != 10*time.Minute {
		t.Fatalf("unexpected ttl defaults: %v %v", cfg.CacheTTL, cfg.DeduperTTL)
	}
	if cfg.EventWorkers != 4 || cfg.EventBuffer != 256 {
		t.Fatalf("unexpected dispatcher defaults: %d %d", cfg.EventWorkers, cfg.EventBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("EVENT_WORKERS", "8")
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("TODOS_TABLE", "todos")
	t.Setenv("SEED_TODOS", "Buy milk, Walk dog ,,")

	cfg, err := Load("7070")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || !cfg.Debug || cfg.CacheTTL != 5*time.Second || cfg.EventWorkers != 8 {
		t.Fatalf("overrides not applied: %#v", cfg)
	}
	if !reflect.DeepEqual(cfg.SeedTodos, []string{"Buy milk", "Walk dog"}) {
		t.Fatalf("unexpected seed todos: %#v", cfg.SeedTodos)
	}
}

func TestLoadSeedDefaultsAndEmpty(t *testing.T) {
	cfg, err := Load("7070")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.SeedTodos, []string{"Buy milk"}) {
		t.Fatalf("unexpected default seed: %#v", cfg.SeedTodos)
	}

	t.Setenv("SEED_TODOS", "")
	cfg, err = Load("7070")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.SeedTodos) != 0 {
		t.Fatalf("expected empty seed, got %#v", cfg.SeedTodos)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	testCases := map[string][2]string{
		"bad duration":  {"CACHE_TTL", "soon"},
		"negative ttl":  {"DEDUPER_TTL", "-1s"},
		"bad int":       {"EVENT_BUFFER", "lots"},
		"zero workers":  {"EVENT_WORKERS", "0"},
		"bad bool":      {"DEBUG", "sometimes"},
		"table no conn": {"TODOS_TABLE", "todos"},
	}
	for name, kv := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORAGE_CONNECTION_STRING", "")
			t.Setenv(kv[0], kv[1])
			if _, err := Load("7070"); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %#v", opts)
	}

	opts, err = RedisOptions("cache.example.net:6380,password=pw,ssl=True,abortConnect=False")
	if err != nil {
		t.Fatalf("parse azure style: %v", err)
	}
	if opts.Addr != "cache.example.net:6380" || opts.Password != "pw" || opts.TLSConfig == nil {
		t.Fatalf("unexpected azure style options: %#v", opts)
	}

	if _, err := RedisOptions(""); err == nil {
		t.Fatalf("expected error for empty connection string")
	}
}
