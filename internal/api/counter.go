package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"htmx-todo/internal/view"
)

const counterPageTitle = "Counter"

// RegisterCounter wires up the counter routes on the provided Echo instance.
func RegisterCounter(e *echo.Echo, counter Counter, r *view.Renderer, logger *log.Logger) {
	e.GET("/", counterPage(counter, r, logger), NoStoreMiddleware())
	e.POST("/increment", increment(counter, r, logger))
	e.GET("/healthz", healthz())
}

func counterPage(counter Counter, r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := counter.Value(c.Request().Context())
		if err != nil {
			return storeFailure(c, logger, err)
		}
		body, err := r.CounterBody(n)
		if err != nil {
			return renderFailure(c, logger, err)
		}
		page, err := r.Page(counterPageTitle, body)
		if err != nil {
			return renderFailure(c, logger, err)
		}
		return c.HTML(http.StatusOK, page)
	}
}

func increment(counter Counter, r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		storeStart := time.Now()
		n, err := counter.Increment(c.Request().Context())
		metricsFrom(c).ObserveStore(time.Since(storeStart))
		if err != nil {
			return storeFailure(c, logger, err)
		}
		html, err := r.Counter(n)
		if err != nil {
			return renderFailure(c, logger, err)
		}
		return c.HTML(http.StatusOK, html)
	}
}
