package domain

// Todo represents a single item in the todo list.
type Todo struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}
