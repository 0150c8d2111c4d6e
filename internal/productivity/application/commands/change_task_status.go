package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
)

// ChangeTaskStatusCommand moves a task through the status graph.
type ChangeTaskStatusCommand struct {
	ID     uuid.UUID
	Status string
}

// ChangeTaskStatusHandler handles status transitions. done and canceled
// route through intermediate states when the graph requires it.
type ChangeTaskStatusHandler struct {
	tasks  task.Repository
	logger *slog.Logger
}

// NewChangeTaskStatusHandler creates the handler.
func NewChangeTaskStatusHandler(tasks task.Repository, logger *slog.Logger) *ChangeTaskStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeTaskStatusHandler{tasks: tasks, logger: logger}
}

// Handle performs the transition and saves the task.
func (h *ChangeTaskStatusHandler) Handle(ctx context.Context, cmd ChangeTaskStatusCommand) (*task.Task, error) {
	status, err := task.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	t, err := h.tasks.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	switch status {
	case task.StatusDone:
		err = t.Complete()
	case task.StatusCanceled:
		err = t.Cancel()
	default:
		err = t.TransitionTo(status)
	}
	if err != nil {
		return nil, err
	}

	t.BumpVersion()
	if err := h.tasks.Save(ctx, t); err != nil {
		return nil, err
	}
	h.logger.Info("task status changed", "task_id", t.ID(), "status", string(t.Status()))
	return t, nil
}
