package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// MoveBlockCommand reschedules an existing block.
type MoveBlockCommand struct {
	BlockID  uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
}

// MoveBlockHandler validates overlap against other blocks and moves one.
type MoveBlockHandler struct {
	blocks    domain.BlockRepository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewMoveBlockHandler creates the handler.
func NewMoveBlockHandler(blocks domain.BlockRepository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *MoveBlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MoveBlockHandler{blocks: blocks, uow: uow, publisher: publisher, logger: logger}
}

// Handle moves the block to the new interval.
func (h *MoveBlockHandler) Handle(ctx context.Context, cmd MoveBlockCommand) (*domain.CalendarBlock, error) {
	interval, err := domain.NewInterval(cmd.StartsAt, cmd.EndsAt)
	if err != nil {
		return nil, err
	}

	var block *domain.CalendarBlock
	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		block, err = h.blocks.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return err
		}

		occupying, err := h.blocks.FindOccupying(txCtx, interval)
		if err != nil {
			return err
		}
		for _, other := range occupying {
			if other.ID() != block.ID() {
				return domain.ErrBlockOverlap
			}
		}

		if err := block.MoveTo(interval); err != nil {
			return err
		}
		return h.blocks.Save(txCtx, block)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("block moved", "block_id", block.ID())
	PublishBlockEvent(ctx, h.publisher, h.logger, RoutingKeyBlocksCommitted, block.ID())
	return block, nil
}
