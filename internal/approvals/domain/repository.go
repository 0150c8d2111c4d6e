package domain

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows approval listings.
type Filter struct {
	Status *Status
	Kind   *Kind
	Limit  int
}

// Repository persists approval requests.
type Repository interface {
	Save(ctx context.Context, request *ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)
	List(ctx context.Context, filter Filter) ([]*ApprovalRequest, error)
	CountPending(ctx context.Context) (int, error)
}
