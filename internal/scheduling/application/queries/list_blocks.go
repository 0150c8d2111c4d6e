package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
)

// ListBlocksQuery filters calendar blocks by time range.
type ListBlocksQuery struct {
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// ListBlocksHandler lists calendar blocks.
type ListBlocksHandler struct {
	blocks domain.BlockRepository
}

// NewListBlocksHandler creates the handler.
func NewListBlocksHandler(blocks domain.BlockRepository) *ListBlocksHandler {
	return &ListBlocksHandler{blocks: blocks}
}

// Handle returns blocks, optionally restricted to a range.
func (h *ListBlocksHandler) Handle(ctx context.Context, q ListBlocksQuery) ([]*domain.CalendarBlock, error) {
	var interval *domain.Interval
	if q.From != nil && q.To != nil {
		iv, err := domain.NewInterval(*q.From, *q.To)
		if err != nil {
			return nil, err
		}
		interval = &iv
	}
	return h.blocks.List(ctx, interval, q.IncludeDeleted)
}

// GetBlockHandler fetches a single block.
type GetBlockHandler struct {
	blocks domain.BlockRepository
}

// NewGetBlockHandler creates the handler.
func NewGetBlockHandler(blocks domain.BlockRepository) *GetBlockHandler {
	return &GetBlockHandler{blocks: blocks}
}

// Handle returns the block by id.
func (h *GetBlockHandler) Handle(ctx context.Context, id uuid.UUID) (*domain.CalendarBlock, error) {
	return h.blocks.FindByID(ctx, id)
}
