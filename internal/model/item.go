package model

import "time"

// Todo is the domain model for a todo entry as served by the GraphQL API.
// ID stays empty for records created locally until the list is reloaded.
type Todo struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasID reports whether the server has assigned an identifier.
func (t Todo) HasID() bool { return t.ID != "" }

// Input types mirror the generated GraphQL schema inputs.
type CreateTodoInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateTodoInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DeleteTodoInput struct {
	ID string `json:"id"`
}
