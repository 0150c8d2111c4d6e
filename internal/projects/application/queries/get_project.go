package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/projects/domain"
)

// GetProjectHandler fetches a single project.
type GetProjectHandler struct {
	projects domain.Repository
}

// NewGetProjectHandler creates the handler.
func NewGetProjectHandler(projects domain.Repository) *GetProjectHandler {
	return &GetProjectHandler{projects: projects}
}

// Handle returns the project by id.
func (h *GetProjectHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return h.projects.FindByID(ctx, id)
}
