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
	cfg, err := config.Load("9022")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	var counter api.Counter = storage.NewMemoryCounter()
	if cfg.RedisConnection != "" {
		redisOpts, err := config.RedisOptions(cfg.RedisConnection)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc := redis.NewClient(redisOpts)
		defer rc.Close()
		counter = storage.NewRedisCounter(rc, "")
		log.Info("using redis counter")
	}

	renderer, err := view.New(view.NavLink{Label: "Counter", Href: "/"})
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("counter"))
	e.Use(api.ObservabilityMiddleware(logger))
	e.GET("/metrics", echoprometheus.NewHandler())
	e.StaticFS("/style", echo.MustSubFS(view.Static(), "style"))
	api.RegisterCounter(e, counter, renderer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
