package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
)

// GetTaskHandler fetches a single task.
type GetTaskHandler struct {
	tasks task.Repository
}

// NewGetTaskHandler creates the handler.
func NewGetTaskHandler(tasks task.Repository) *GetTaskHandler {
	return &GetTaskHandler{tasks: tasks}
}

// Handle returns the task by id.
func (h *GetTaskHandler) Handle(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	return h.tasks.FindByID(ctx, id)
}
