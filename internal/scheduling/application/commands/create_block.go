package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// RoutingKeyBlocksCommitted announces newly committed calendar blocks.
const RoutingKeyBlocksCommitted = "blocks.committed"

// RoutingKeyBlocksDeleted announces soft-deleted calendar blocks.
const RoutingKeyBlocksDeleted = "blocks.deleted"

// CreateBlockCommand places a block directly on the calendar.
type CreateBlockCommand struct {
	Title     string
	StartsAt  time.Time
	EndsAt    time.Time
	BlockType string
	TaskID    *uuid.UUID
	Source    string
}

// CreateBlockHandler validates overlap and persists a new block.
type CreateBlockHandler struct {
	blocks    domain.BlockRepository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewCreateBlockHandler creates the handler. The publisher may be nil.
func NewCreateBlockHandler(blocks domain.BlockRepository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *CreateBlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateBlockHandler{blocks: blocks, uow: uow, publisher: publisher, logger: logger}
}

// Handle creates the block unless it overlaps an occupying block.
func (h *CreateBlockHandler) Handle(ctx context.Context, cmd CreateBlockCommand) (*domain.CalendarBlock, error) {
	interval, err := domain.NewInterval(cmd.StartsAt, cmd.EndsAt)
	if err != nil {
		return nil, err
	}

	blockType := domain.BlockType(cmd.BlockType)
	if blockType == "" {
		blockType = domain.BlockTypeTask
	}
	source := domain.BlockSource(cmd.Source)
	if source == "" {
		source = domain.BlockSourceUser
	}

	block, err := domain.NewCalendarBlock(cmd.Title, interval, blockType, source, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		occupying, err := h.blocks.FindOccupying(txCtx, interval)
		if err != nil {
			return err
		}
		if len(occupying) > 0 {
			return domain.ErrBlockOverlap
		}
		return h.blocks.Save(txCtx, block)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("block created", "block_id", block.ID(), "type", string(blockType))
	PublishBlockEvent(ctx, h.publisher, h.logger, RoutingKeyBlocksCommitted, block.ID())
	return block, nil
}

// PublishBlockEvent emits a block lifecycle event; failures are logged only.
func PublishBlockEvent(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, routingKey string, blockIDs ...uuid.UUID) {
	if publisher == nil || len(blockIDs) == 0 {
		return
	}
	payload, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   blockIDs[0],
		AggregateType: "calendar_block",
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
		Payload:       blockIDsPayload(blockIDs),
	})
	if err != nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, payload); err != nil && logger != nil {
		logger.Warn("failed to publish block event", "routing_key", routingKey, "error", err)
	}
}

func blockIDsPayload(ids []uuid.UUID) json.RawMessage {
	data, err := json.Marshal(map[string][]uuid.UUID{"block_ids": ids})
	if err != nil {
		return json.RawMessage(fmt.Sprintf("{%q:[]}", "block_ids"))
	}
	return data
}
