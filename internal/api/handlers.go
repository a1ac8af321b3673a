package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"htmx-todo/internal/domain"
	"htmx-todo/internal/view"
)

const (
	todoPageTitle     = "Todo App"
	otherPageTitle    = "Other Page"
	idempotencyHeader = "Idempotency-Key"
	contentFormField  = "content"
	updateValueField  = "value"
)

// Options carries the optional collaborators of the todo routes. Nil fields
// disable the corresponding feature.
type Options struct {
	Deduper Deduper
	Events  EventPublisher
}

// Register wires up all todo routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, r *view.Renderer, logger *log.Logger, opts Options) {
	e.GET("/", index(store, r, logger), NoStoreMiddleware())
	e.GET("/other-page", otherPage(r, logger))
	e.POST("/api/todos", createTodo(store, r, opts.Deduper, opts.Events, logger))
	e.POST("/api/todos/validate", validateTodo(r, logger))
	e.POST("/api/todos/:id", updateTodo(store, r, opts.Events, logger))
	e.POST("/api/todos/:id/toggle", toggleTodo(store, r, opts.Events, logger))
	e.POST("/api/todos/:id/edit", editTodo(store, r, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func index(store Store, r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)

		storeStart := time.Now()
		todos, err := store.List(c.Request().Context())
		metrics.ObserveStore(time.Since(storeStart))
		if err != nil {
			return storeFailure(c, logger, err)
		}

		renderStart := time.Now()
		body, err := r.Index(todoPageTitle, todos, view.ListOptions{SubmitKey: uuid.NewString()})
		if err != nil {
			return renderFailure(c, logger, err)
		}
		page, err := r.Page(todoPageTitle, body)
		metrics.ObserveRender(time.Since(renderStart))
		if err != nil {
			return renderFailure(c, logger, err)
		}
		return c.HTML(http.StatusOK, page)
	}
}

func otherPage(r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := r.OtherPage()
		if err != nil {
			return renderFailure(c, logger, err)
		}
		page, err := r.Page(otherPageTitle, body)
		if err != nil {
			return renderFailure(c, logger, err)
		}
		return c.HTML(http.StatusOK, page)
	}
}

func createTodo(store Store, r *view.Renderer, deduper Deduper, events EventPublisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metrics := metricsFrom(c)
		content := c.FormValue(contentFormField)

		if err := domain.ValidateContent(content); err != nil {
			metrics.SetErrorStage("validation")
			return renderList(c, store, r, logger, err.Error())
		}

		key := c.Request().Header.Get(idempotencyHeader)
		if deduper != nil && key != "" {
			added, err := deduper.Add(ctx, key)
			if err != nil {
				logger.WithError(err).Warn("deduper unavailable; inserting without duplicate check")
				key = ""
			} else if !added {
				metrics.SetErrorStage("duplicate")
				return renderList(c, store, r, logger, "")
			}
		} else {
			key = ""
		}

		storeStart := time.Now()
		todo, err := store.Insert(ctx, content)
		metrics.ObserveStore(time.Since(storeStart))
		if err != nil {
			if key != "" {
				if rerr := deduper.Remove(ctx, key); rerr != nil {
					logger.Errorf("dedupe rollback failed, err: %v, key: %s", rerr, key)
				}
			}
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				metrics.SetErrorStage("validation")
				return renderList(c, store, r, logger, vErr.Error())
			}
			return storeFailure(c, logger, err)
		}
		metrics.SetTodoID(todo.ID)
		publish(events, domain.EventTodoCreated, todo, logger)

		return renderList(c, store, r, logger, "")
	}
}

func validateTodo(r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		msg := ""
		if err := domain.ValidateContent(c.FormValue(contentFormField)); err != nil {
			msg = err.Error()
		}
		html, err := r.Error(msg)
		if err != nil {
			return renderFailure(c, logger, err)
		}
		return c.HTML(http.StatusOK, html)
	}
}

func updateTodo(store Store, r *view.Renderer, events EventPublisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		metrics := metricsFrom(c)
		id := c.Param("id")
		metrics.SetTodoID(id)
		value := c.FormValue(updateValueField)

		// A blank submission leaves the todo and the page untouched.
		if domain.IsBlank(value) {
			return c.NoContent(http.StatusNoContent)
		}

		if err := domain.ValidateContent(value); err != nil {
			metrics.SetErrorStage("validation")
			todo, gerr := store.Get(ctx, id)
			if gerr != nil {
				return storeFailure(c, logger, gerr)
			}
			// Keep what the user typed so they can shorten it.
			todo.Content = value
			return renderItem(c, r, logger, todo, view.ItemOptions{Editing: true, Error: err.Error()})
		}

		storeStart := time.Now()
		todo, err := store.UpdateContent(ctx, id, value)
		metrics.ObserveStore(time.Since(storeStart))
		if err != nil {
			return storeFailure(c, logger, err)
		}
		publish(events, domain.EventTodoUpdated, todo, logger)
		return renderItem(c, r, logger, todo, view.ItemOptions{})
	}
}

func toggleTodo(store Store, r *view.Renderer, events EventPublisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)
		id := c.Param("id")
		metrics.SetTodoID(id)

		storeStart := time.Now()
		todo, err := store.ToggleCompleted(c.Request().Context(), id)
		metrics.ObserveStore(time.Since(storeStart))
		if err != nil {
			return storeFailure(c, logger, err)
		}
		publish(events, domain.EventTodoToggled, todo, logger)
		return renderItem(c, r, logger, todo, view.ItemOptions{})
	}
}

func editTodo(store Store, r *view.Renderer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := metricsFrom(c)
		id := c.Param("id")
		metrics.SetTodoID(id)

		storeStart := time.Now()
		todo, err := store.Get(c.Request().Context(), id)
		metrics.ObserveStore(time.Since(storeStart))
		if err != nil {
			return storeFailure(c, logger, err)
		}
		return renderItem(c, r, logger, todo, view.ItemOptions{Editing: true})
	}
}

func renderList(c echo.Context, store Store, r *view.Renderer, logger *log.Logger, errMsg string) error {
	metrics := metricsFrom(c)

	storeStart := time.Now()
	todos, err := store.List(c.Request().Context())
	metrics.ObserveStore(time.Since(storeStart))
	if err != nil {
		return storeFailure(c, logger, err)
	}

	renderStart := time.Now()
	html, err := r.List(todos, view.ListOptions{Error: errMsg, SubmitKey: uuid.NewString()})
	metrics.ObserveRender(time.Since(renderStart))
	if err != nil {
		return renderFailure(c, logger, err)
	}
	return c.HTML(http.StatusOK, html)
}

func renderItem(c echo.Context, r *view.Renderer, logger *log.Logger, todo domain.Todo, opts view.ItemOptions) error {
	renderStart := time.Now()
	html, err := r.Item(todo, opts)
	metricsFrom(c).ObserveRender(time.Since(renderStart))
	if err != nil {
		return renderFailure(c, logger, err)
	}
	return c.HTML(http.StatusOK, html)
}

// storeFailure maps store errors to responses. Unknown IDs are not faults.
func storeFailure(c echo.Context, logger *log.Logger, err error) error {
	metrics := metricsFrom(c)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.SetErrorStage("not_found")
		return c.NoContent(http.StatusNotFound)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		metrics.SetErrorStage("conflict")
		return c.String(http.StatusConflict, "todo was changed concurrently, retry")
	default:
		metrics.SetErrorStage("storage")
		logger.WithError(err).Errorf("store failure on %s %s", c.Request().Method, c.Path())
		return c.String(http.StatusInternalServerError, "storage failure")
	}
}

func renderFailure(c echo.Context, logger *log.Logger, err error) error {
	metricsFrom(c).SetErrorStage("render")
	logger.WithError(err).Error("render failure")
	return c.String(http.StatusInternalServerError, "render failure")
}

// publish emits a change event when a publisher is configured.
func publish(events EventPublisher, eventType string, todo domain.Todo, logger *log.Logger) {
	if events == nil {
		return
	}
	data, err := sonic.Marshal(todo)
	if err != nil {
		logger.WithError(err).Errorf("encode %s event", eventType)
		return
	}
	events.Publish(domain.Event{
		ID:         uuid.NewString(),
		EntityID:   todo.ID,
		EntityType: domain.EntityTypeTodo,
		Type:       eventType,
		Data:       data,
		Time:       domain.NextSequence(),
	})
}
