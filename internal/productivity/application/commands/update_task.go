package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
	projectsDomain "github.com/aawohq/aawo/internal/projects/domain"
)

// UpdateTaskCommand changes task fields. Nil pointers leave the field
// untouched; ClearDueAt and ClearProjectID drop optional fields.
type UpdateTaskCommand struct {
	ID             uuid.UUID
	Title          *string
	Description    *string
	Priority       *int
	EffortMinutes  *int
	DueAt          *time.Time
	ClearDueAt     bool
	ProjectID      *uuid.UUID
	ClearProjectID bool
	Assignee       *string
	Version        *int
}

// UpdateTaskHandler handles task field updates.
type UpdateTaskHandler struct {
	tasks    task.Repository
	projects projectsDomain.Repository
	logger   *slog.Logger
}

// NewUpdateTaskHandler creates the handler.
func NewUpdateTaskHandler(tasks task.Repository, projects projectsDomain.Repository, logger *slog.Logger) *UpdateTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateTaskHandler{tasks: tasks, projects: projects, logger: logger}
}

// Handle applies the requested changes under optimistic concurrency.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (*task.Task, error) {
	t, err := h.tasks.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Version != nil && *cmd.Version != t.Version() {
		return nil, task.ErrVersionConflict
	}

	if cmd.Title != nil {
		if err := t.SetTitle(*cmd.Title); err != nil {
			return nil, err
		}
	}
	if cmd.Description != nil {
		t.SetDescription(*cmd.Description)
	}
	if cmd.Priority != nil {
		p, err := task.NewPriority(*cmd.Priority)
		if err != nil {
			return nil, err
		}
		if err := t.SetPriority(p); err != nil {
			return nil, err
		}
	}
	if cmd.EffortMinutes != nil {
		if err := t.SetEffort(*cmd.EffortMinutes); err != nil {
			return nil, err
		}
	}
	switch {
	case cmd.ClearDueAt:
		t.SetDueAt(nil)
	case cmd.DueAt != nil:
		t.SetDueAt(cmd.DueAt)
	}
	switch {
	case cmd.ClearProjectID:
		t.SetProjectID(nil)
	case cmd.ProjectID != nil:
		if h.projects != nil {
			if _, err := h.projects.FindByID(ctx, *cmd.ProjectID); err != nil {
				return nil, err
			}
		}
		t.SetProjectID(cmd.ProjectID)
	}
	if cmd.Assignee != nil {
		t.SetAssignee(*cmd.Assignee)
	}

	t.BumpVersion()
	if err := h.tasks.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
