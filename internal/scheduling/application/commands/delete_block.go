package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// RemoteCalendar is the slice of the calendar mirror the block commands
// need: connection state and remote deletion.
type RemoteCalendar interface {
	IsConnected(ctx context.Context) bool
	DeleteBlocks(ctx context.Context, blocks []*domain.CalendarBlock) error
}

// DeleteBlockCommand soft-deletes a calendar block.
type DeleteBlockCommand struct {
	BlockID uuid.UUID
}

// DeleteBlockHandler removes a block, remote copy first. A failed
// remote delete aborts the whole operation so the local calendar never
// claims a block is gone while the mirror still shows it.
type DeleteBlockHandler struct {
	blocks    domain.BlockRepository
	remote    RemoteCalendar
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDeleteBlockHandler creates the handler. remote may be nil.
func NewDeleteBlockHandler(blocks domain.BlockRepository, remote RemoteCalendar, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *DeleteBlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteBlockHandler{blocks: blocks, remote: remote, uow: uow, publisher: publisher, logger: logger}
}

// Handle deletes the block.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) error {
	block, err := h.blocks.FindByID(ctx, cmd.BlockID)
	if err != nil {
		return err
	}
	if block.Status() == domain.BlockStatusDeleted {
		return nil
	}

	if block.Status() == domain.BlockStatusMirrored && h.remote != nil && h.remote.IsConnected(ctx) {
		if err := h.remote.DeleteBlocks(ctx, []*domain.CalendarBlock{block}); err != nil {
			return fmt.Errorf("delete remote copy: %w", err)
		}
	}

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		block.MarkDeleted()
		return h.blocks.Save(txCtx, block)
	})
	if err != nil {
		return err
	}

	h.logger.Info("block deleted", "block_id", block.ID())
	PublishBlockEvent(ctx, h.publisher, h.logger, RoutingKeyBlocksDeleted, block.ID())
	return nil
}
