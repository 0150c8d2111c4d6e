package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows task listings. Nil fields match everything.
type Filter struct {
	Statuses  []Status
	ProjectID *uuid.UUID
	DueBefore *time.Time
	// IncludeNoDue keeps tasks without a due date when DueBefore is set.
	IncludeNoDue bool
	Limit        int
}

// Repository persists tasks.
type Repository interface {
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
