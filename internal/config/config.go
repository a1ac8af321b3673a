// Package config reads service configuration from the environment.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the settings shared by the todo and counter servers.
type Config struct {
	Port  string
	Debug bool

	// RedisConnection enables the list cache, the submit deduper and the
	// shared counter when set.
	RedisConnection string
	CacheTTL        time.Duration
	DeduperTTL      time.Duration

	// StorageConnection, TodosTable and EventsQueue enable the Azure Storage
	// backends when set.
	StorageConnection string
	TodosTable        string
	EventsQueue       string

	EventWorkers        int
	EventBuffer         int
	EventHandoffTimeout time.Duration
	EventPublishTimeout time.Duration
	SeedTodos           []string
	ShutdownTimeout     time.Duration
}

// Load reads the configuration. defaultPort is used when PORT is unset.
func Load(defaultPort string) (Config, error) {
	cfg := Config{
		Port:              envString("PORT", defaultPort),
		RedisConnection:   os.Getenv("REDIS_CONNECTION_STRING"),
		StorageConnection: os.Getenv("STORAGE_CONNECTION_STRING"),
		TodosTable:        os.Getenv("TODOS_TABLE"),
		EventsQueue:       os.Getenv("EVENTS_QUEUE"),
		SeedTodos:         envList("SEED_TODOS", []string{"Buy milk"}),
	}

	var err error
	if cfg.Debug, err = envBool("DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = envDur("CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DeduperTTL, err = envDur("DEDUPER_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.EventWorkers, err = envInt("EVENT_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.EventBuffer, err = envInt("EVENT_BUFFER", 256); err != nil {
		return Config{}, err
	}
	if cfg.EventHandoffTimeout, err = envDur("EVENT_HANDOFF_TIMEOUT", 15*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.EventPublishTimeout, err = envDur("EVENT_PUBLISH_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envDur("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if (cfg.TodosTable != "" || cfg.EventsQueue != "") && cfg.StorageConnection == "" {
		return Config{}, fmt.Errorf("TODOS_TABLE and EVENTS_QUEUE require STORAGE_CONNECTION_STRING")
	}
	return cfg, nil
}

// ListenAddr is the address the HTTP server binds to.
func (c Config) ListenAddr() string {
	return ":" + c.Port
}

// RedisOptions parses a Redis connection string. Both redis:// URLs and the
// Azure style "host:port,password=...,ssl=True" form are accepted.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, fmt.Errorf("empty redis connection string")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}

	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// envList splits a comma separated variable. A variable that is set but
// empty yields an empty list.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
