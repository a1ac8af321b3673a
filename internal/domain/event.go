package domain

import "github.com/bytedance/sonic"

const (
	EntityTypeTodo = "todo"

	EventTodoCreated = "todo-created"
	EventTodoUpdated = "todo-updated"
	EventTodoToggled = "todo-toggled"
)

// Event describes a change applied to a todo. It is published after the
// change has been stored.
type Event struct {
	ID         string                 `json:"id"`
	EntityID   string                 `json:"entityId"`
	EntityType string                 `json:"entityType"`
	Type       string                 `json:"type"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Time       int64                  `json:"time"`
}
