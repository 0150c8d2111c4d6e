package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// DeleteTaskHandler removes a task and soft-deletes its future
// calendar blocks.
type DeleteTaskHandler struct {
	tasks     task.Repository
	blocks    schedulingDomain.BlockRepository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDeleteTaskHandler creates the handler.
func NewDeleteTaskHandler(
	tasks task.Repository,
	blocks schedulingDomain.BlockRepository,
	uow application.UnitOfWork,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *DeleteTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteTaskHandler{tasks: tasks, blocks: blocks, uow: uow, publisher: publisher, logger: logger}
}

// Handle deletes the task and cleans up blocks that have not started yet.
func (h *DeleteTaskHandler) Handle(ctx context.Context, id uuid.UUID) error {
	t, err := h.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var deletedBlockIDs []uuid.UUID
	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		taskBlocks, err := h.blocks.FindByTaskID(txCtx, t.ID())
		if err != nil {
			return err
		}
		for _, b := range taskBlocks {
			if !b.IsOccupying() || b.Interval().Start.Before(now) {
				continue
			}
			b.MarkDeleted()
			if err := h.blocks.Save(txCtx, b); err != nil {
				return err
			}
			deletedBlockIDs = append(deletedBlockIDs, b.ID())
		}
		return h.tasks.Delete(txCtx, t.ID())
	})
	if err != nil {
		return err
	}

	h.logger.Info("task deleted", "task_id", id, "blocks_removed", len(deletedBlockIDs))
	schedulingCommands.PublishBlockEvent(ctx, h.publisher, h.logger, schedulingCommands.RoutingKeyBlocksDeleted, deletedBlockIDs...)
	return nil
}
