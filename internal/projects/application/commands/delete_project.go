package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/projects/domain"
)

// DeleteProjectHandler removes a project. Tasks referencing it keep
// working; the task repository clears the dangling project id on read.
type DeleteProjectHandler struct {
	projects domain.Repository
	logger   *slog.Logger
}

// NewDeleteProjectHandler creates the handler.
func NewDeleteProjectHandler(projects domain.Repository, logger *slog.Logger) *DeleteProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteProjectHandler{projects: projects, logger: logger}
}

// Handle deletes the project by id.
func (h *DeleteProjectHandler) Handle(ctx context.Context, id uuid.UUID) error {
	if _, err := h.projects.FindByID(ctx, id); err != nil {
		return err
	}
	if err := h.projects.Delete(ctx, id); err != nil {
		return err
	}
	h.logger.Info("project deleted", "project_id", id)
	return nil
}
