package domain

import (
	"context"

	"github.com/google/uuid"
)

// BlockRepository persists calendar blocks.
type BlockRepository interface {
	Save(ctx context.Context, block *CalendarBlock) error
	FindByID(ctx context.Context, id uuid.UUID) (*CalendarBlock, error)
	// FindOccupying returns non-deleted blocks overlapping the interval.
	FindOccupying(ctx context.Context, interval Interval) ([]*CalendarBlock, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*CalendarBlock, error)
	FindByExternalID(ctx context.Context, provider, externalID string) (*CalendarBlock, error)
	List(ctx context.Context, interval *Interval, includeDeleted bool) ([]*CalendarBlock, error)
}

// ProposalRepository persists scheduling proposals with their changes.
type ProposalRepository interface {
	Save(ctx context.Context, proposal *SchedulingProposal) error
	FindByID(ctx context.Context, id uuid.UUID) (*SchedulingProposal, error)
	List(ctx context.Context, status *ProposalStatus, limit int) ([]*SchedulingProposal, error)
}
