package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"htmx-todo/internal/domain"
)

// Memory is an in-process todo store. Todos are kept in insertion order and
// every mutation runs under a single lock.
type Memory struct {
	mu    sync.RWMutex
	todos map[string]*domain.Todo
	order []string
	newID func() string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		todos: make(map[string]*domain.Todo),
		newID: uuid.NewString,
	}
}

// Insert validates content and appends a new, uncompleted todo.
func (m *Memory) Insert(_ context.Context, content string) (domain.Todo, error) {
	if err := domain.ValidateContent(content); err != nil {
		return domain.Todo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	for _, exists := m.todos[id]; exists; _, exists = m.todos[id] {
		id = m.newID()
	}
	t := &domain.Todo{ID: id, Content: content}
	m.todos[id] = t
	m.order = append(m.order, id)
	return *t, nil
}

func (m *Memory) Get(_ context.Context, id string) (domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrNotFound
	}
	return *t, nil
}

// UpdateContent replaces the content of an existing todo. Content is stored
// as given; callers validate it first.
func (m *Memory) UpdateContent(_ context.Context, id, content string) (domain.Todo, error) {
	return m.update(id, func(t *domain.Todo) { t.Content = content })
}

func (m *Memory) ToggleCompleted(_ context.Context, id string) (domain.Todo, error) {
	return m.update(id, func(t *domain.Todo) { t.Completed = !t.Completed })
}

// List returns a copy of all todos in insertion order.
func (m *Memory) List(_ context.Context) ([]domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Todo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.todos[id])
	}
	return out, nil
}

func (m *Memory) update(id string, apply func(*domain.Todo)) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrNotFound
	}
	apply(t)
	return *t, nil
}
