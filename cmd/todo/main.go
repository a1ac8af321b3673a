package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"htmx-todo/internal/api"
	"htmx-todo/internal/config"
	"htmx-todo/internal/storage"
	"htmx-todo/internal/view"
)

func main() {
	cfg, err := config.Load("7070")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	var base api.Store
	if cfg.TodosTable != "" {
		tables, err := storage.NewTables(cfg.StorageConnection, cfg.TodosTable)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		base = tables
		log.Infof("using table storage, table: %s", cfg.TodosTable)
	} else {
		base = storage.NewMemory()
		log.Info("using in-memory storage")
	}
	store := base

	var opts api.Options
	if cfg.RedisConnection != "" {
		redisOpts, err := config.RedisOptions(cfg.RedisConnection)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc := redis.NewClient(redisOpts)
		defer rc.Close()
		store = storage.NewCache(base, rc, cfg.CacheTTL)
		opts.Deduper = api.NewRedisDeduper(rc, cfg.DeduperTTL)
	}

	var dispatcher *api.Dispatcher
	if cfg.EventsQueue != "" {
		queue, err := storage.NewEventQueue(cfg.StorageConnection, cfg.EventsQueue)
		if err != nil {
			log.Fatalf("queue: %v", err)
		}
		dispatcher = api.NewDispatcher(queue, api.DispatcherConfig{
			Workers:        cfg.EventWorkers,
			Buffer:         cfg.EventBuffer,
			HandoffTimeout: cfg.EventHandoffTimeout,
			PublishTimeout: cfg.EventPublishTimeout,
		}, logger)
		opts.Events = dispatcher
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seed(ctx, store, cfg.SeedTodos); err != nil {
		log.Fatalf("seed: %v", err)
	}

	renderer, err := view.New(
		view.NavLink{Label: "Todo App", Href: "/"},
		view.NavLink{Label: "Other Page", Href: "/other-page"},
	)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("todo"))
	e.Use(api.ObservabilityMiddleware(logger))
	e.GET("/metrics", echoprometheus.NewHandler())
	e.StaticFS("/style", echo.MustSubFS(view.Static(), "style"))
	api.Register(e, store, renderer, logger, opts)

	go func() {
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if dispatcher != nil {
		dispatcher.Close()
	}
}

// seed inserts the initial items when the store is empty, so a restart
// against persistent storage does not duplicate them.
func seed(ctx context.Context, store api.Store, items []string) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, content := range items {
		if _, err := store.Insert(ctx, content); err != nil {
			return err
		}
	}
	return nil
}
