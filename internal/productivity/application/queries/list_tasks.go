package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
)

// ListTasksQuery filters the task list.
type ListTasksQuery struct {
	Statuses  []string
	ProjectID *uuid.UUID
	DueBefore *time.Time
	Limit     int
}

// ListTasksHandler lists tasks.
type ListTasksHandler struct {
	tasks task.Repository
}

// NewListTasksHandler creates the handler.
func NewListTasksHandler(tasks task.Repository) *ListTasksHandler {
	return &ListTasksHandler{tasks: tasks}
}

// Handle returns tasks matching the filter.
func (h *ListTasksHandler) Handle(ctx context.Context, q ListTasksQuery) ([]*task.Task, error) {
	filter := task.Filter{
		ProjectID:    q.ProjectID,
		DueBefore:    q.DueBefore,
		IncludeNoDue: true,
		Limit:        q.Limit,
	}
	for _, s := range q.Statuses {
		status, err := task.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return h.tasks.List(ctx, filter)
}
