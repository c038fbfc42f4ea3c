package types

import "time"

// Todo is a task record. CreatedAt and UpdatedAt are written by the database.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TodoView struct {
	ID          int64     `json:"id" example:"1"`
	Title       string    `json:"title" example:"Buy milk"`
	Description *string   `json:"description" example:"Two litres, semi-skimmed"`
	Completed   bool      `json:"completed" example:"false"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Todo) View() TodoView {
	return TodoView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// CreateTodoRequest represents the expected JSON body for creating a todo.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=255" example:"Buy milk"`
	Description *string `json:"description" validate:"omitempty,max=1000" example:"Two litres"`
}

// UpdateTodoRequest replaces title and description of an existing todo.
type UpdateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=255" example:"Buy oat milk"`
	Description *string `json:"description" validate:"omitempty,max=1000" example:"One litre"`
}

type TodoStats struct {
	Total     int64 `json:"total" example:"10"`
	Completed int64 `json:"completed" example:"4"`
	Pending   int64 `json:"pending" example:"6"`
}

// HealthStatus is the static liveness payload.
type HealthStatus struct {
	Status    string    `json:"status" example:"UP"`
	Service   string    `json:"service" example:"todo-api"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version" example:"1.0.0"`
}
