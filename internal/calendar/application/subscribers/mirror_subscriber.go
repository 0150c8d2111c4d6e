package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	calendarDomain "github.com/aawohq/aawo/internal/calendar/domain"
	schedulingCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// MirrorSubscriber pushes committed block changes to the remote
// calendar as they happen.
type MirrorSubscriber struct {
	blocks schedulingDomain.BlockRepository
	mirror calendarDomain.Mirror
	logger *slog.Logger
}

var _ eventbus.EventConsumer = (*MirrorSubscriber)(nil)

// NewMirrorSubscriber creates the subscriber.
func NewMirrorSubscriber(blocks schedulingDomain.BlockRepository, mirror calendarDomain.Mirror, logger *slog.Logger) *MirrorSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorSubscriber{blocks: blocks, mirror: mirror, logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (s *MirrorSubscriber) EventTypes() []string {
	return []string{
		schedulingCommands.RoutingKeyBlocksCommitted,
		schedulingCommands.RoutingKeyBlocksDeleted,
	}
}

// Handle mirrors or deletes the blocks named by the event. When the
// provider is not connected the event is acknowledged and dropped.
func (s *MirrorSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.mirror.IsConnected(ctx) {
		return nil
	}

	var payload struct {
		BlockIDs []uuid.UUID `json:"block_ids"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode block event payload: %w", err)
	}
	if len(payload.BlockIDs) == 0 {
		return nil
	}

	blocks := make([]*schedulingDomain.CalendarBlock, 0, len(payload.BlockIDs))
	for _, id := range payload.BlockIDs {
		block, err := s.blocks.FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("mirror subscriber skipping unknown block", "block_id", id, "error", err)
			continue
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil
	}

	switch event.RoutingKey {
	case schedulingCommands.RoutingKeyBlocksDeleted:
		result, err := s.mirror.Delete(ctx, blocks)
		if err != nil {
			return fmt.Errorf("delete mirrored blocks: %w", err)
		}
		for _, block := range blocks {
			if err := s.blocks.Save(ctx, block); err != nil {
				return fmt.Errorf("save unmirrored block: %w", err)
			}
		}
		s.logger.Info("mirror delete finished",
			"deleted", result.Deleted, "skipped", result.Skipped, "failed", result.Failed)

	default:
		result, err := s.mirror.Mirror(ctx, blocks)
		if err != nil {
			return fmt.Errorf("mirror blocks: %w", err)
		}
		for _, block := range blocks {
			if err := s.blocks.Save(ctx, block); err != nil {
				return fmt.Errorf("save mirrored block: %w", err)
			}
		}
		s.logger.Info("mirror push finished",
			"created", result.Created, "updated", result.Updated,
			"skipped", result.Skipped, "failed", result.Failed)
	}
	return nil
}
