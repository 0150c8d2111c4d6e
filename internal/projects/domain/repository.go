package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists projects.
type Repository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
