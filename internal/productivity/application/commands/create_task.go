package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
	projectsDomain "github.com/aawohq/aawo/internal/projects/domain"
)

// CreateTaskCommand creates a new task.
type CreateTaskCommand struct {
	Title         string
	Description   string
	Priority      *int
	EffortMinutes *int
	DueAt         *time.Time
	ProjectID     *uuid.UUID
	Assignee      string
	Source        string
}

// CreateTaskHandler handles task creation.
type CreateTaskHandler struct {
	tasks    task.Repository
	projects projectsDomain.Repository
	logger   *slog.Logger
}

// NewCreateTaskHandler creates the handler. Projects may be nil when
// project validation is not wanted.
func NewCreateTaskHandler(tasks task.Repository, projects projectsDomain.Repository, logger *slog.Logger) *CreateTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateTaskHandler{tasks: tasks, projects: projects, logger: logger}
}

// Handle validates and persists the new task.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*task.Task, error) {
	t, err := task.NewTask(cmd.Title, task.Source(cmd.Source))
	if err != nil {
		return nil, err
	}
	if cmd.Description != "" {
		t.SetDescription(cmd.Description)
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
	if cmd.DueAt != nil {
		t.SetDueAt(cmd.DueAt)
	}
	if cmd.Assignee != "" {
		t.SetAssignee(cmd.Assignee)
	}
	if cmd.ProjectID != nil {
		if h.projects != nil {
			if _, err := h.projects.FindByID(ctx, *cmd.ProjectID); err != nil {
				return nil, err
			}
		}
		t.SetProjectID(cmd.ProjectID)
	}

	if err := h.tasks.Save(ctx, t); err != nil {
		return nil, err
	}
	h.logger.Info("task created", "task_id", t.ID(), "source", string(t.Source()))
	return t, nil
}
