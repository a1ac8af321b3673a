package api

import (
	"context"

	"htmx-todo/internal/domain"
)

// Store abstracts todo persistence for handlers.
type Store interface {
	Insert(ctx context.Context, content string) (domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	UpdateContent(ctx context.Context, id, content string) (domain.Todo, error)
	ToggleCompleted(ctx context.Context, id string) (domain.Todo, error)
	List(ctx context.Context) ([]domain.Todo, error)
}

// Counter is the state behind the counter page.
type Counter interface {
	Value(ctx context.Context) (int64, error)
	Increment(ctx context.Context) (int64, error)
}

// Deduper prevents a submitted form from being applied twice.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when the insert fails.
	Remove(ctx context.Context, key string) error
}

// EventPublisher accepts change events for asynchronous delivery. Publish
// must not block the request; it reports whether the event was accepted.
type EventPublisher interface {
	Publish(ev domain.Event) bool
}

// EventSink delivers a single event downstream.
type EventSink interface {
	Publish(ctx context.Context, ev domain.Event) error
}
