package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
)

// RoutingKeyProposalApplied announces applied proposals on the event bus.
const RoutingKeyProposalApplied = "proposal.applied"

// ApplyResult reports what applying a proposal did.
// UpdatedBlocks is kept for wire compatibility and is always empty:
// proposals only ever create blocks.
type ApplyResult struct {
	Proposal       *domain.SchedulingProposal
	CreatedBlocks  []*domain.CalendarBlock
	UpdatedBlocks  []*domain.CalendarBlock
	SkippedChanges []domain.ProposedChange
}

// ProposalApplier turns draft proposals into calendar blocks.
type ProposalApplier struct {
	blocks    domain.BlockRepository
	proposals domain.ProposalRepository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewProposalApplier creates an applier. The publisher may be nil.
func NewProposalApplier(
	blocks domain.BlockRepository,
	proposals domain.ProposalRepository,
	uow application.UnitOfWork,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *ProposalApplier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProposalApplier{
		blocks:    blocks,
		proposals: proposals,
		uow:       uow,
		publisher: publisher,
		logger:    logger,
	}
}

// Apply re-validates every change against the live calendar, creates
// blocks for the changes that still fit, skips the ones that now
// conflict and marks the proposal applied.
func (a *ProposalApplier) Apply(ctx context.Context, proposalID uuid.UUID) (*ApplyResult, error) {
	proposal, err := a.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status() != domain.ProposalStatusDraft {
		return nil, domain.ErrProposalNotDraft
	}

	result := &ApplyResult{Proposal: proposal}
	err = application.WithUnitOfWork(ctx, a.uow, func(txCtx context.Context) error {
		for _, change := range proposal.Changes() {
			interval, err := domain.NewInterval(change.Payload.StartsAt, change.Payload.EndsAt)
			if err != nil {
				result.SkippedChanges = append(result.SkippedChanges, change)
				continue
			}

			conflict, err := a.hasConflict(txCtx, interval, result.CreatedBlocks)
			if err != nil {
				return err
			}
			if conflict {
				result.SkippedChanges = append(result.SkippedChanges, change)
				continue
			}

			block, err := domain.NewCalendarBlock(
				change.Payload.Title,
				interval,
				change.Payload.BlockType,
				domain.BlockSourceScheduler,
				change.TaskID,
			)
			if err != nil {
				return fmt.Errorf("build block for change %s: %w", change.ID, err)
			}
			if err := a.blocks.Save(txCtx, block); err != nil {
				return fmt.Errorf("save block: %w", err)
			}
			result.CreatedBlocks = append(result.CreatedBlocks, block)
		}

		if err := proposal.MarkApplied(); err != nil {
			return err
		}
		return a.proposals.Save(txCtx, proposal)
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("proposal applied",
		"proposal_id", proposalID,
		"created", len(result.CreatedBlocks),
		"skipped", len(result.SkippedChanges),
	)
	a.publishApplied(ctx, result)
	return result, nil
}

func (a *ProposalApplier) hasConflict(ctx context.Context, interval domain.Interval, pending []*domain.CalendarBlock) (bool, error) {
	existing, err := a.blocks.FindOccupying(ctx, interval)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return true, nil
	}
	for _, b := range pending {
		if b.Interval().Overlaps(interval) {
			return true, nil
		}
	}
	return false, nil
}

func (a *ProposalApplier) publishApplied(ctx context.Context, result *ApplyResult) {
	if a.publisher == nil {
		return
	}
	blockIDs := make([]uuid.UUID, 0, len(result.CreatedBlocks))
	for _, b := range result.CreatedBlocks {
		blockIDs = append(blockIDs, b.ID())
	}
	payload, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   result.Proposal.ID(),
		AggregateType: "scheduling_proposal",
		RoutingKey:    RoutingKeyProposalApplied,
		Payload:       mustJSON(map[string]any{"block_ids": blockIDs}),
	})
	if err != nil {
		return
	}
	if err := a.publisher.Publish(ctx, RoutingKeyProposalApplied, payload); err != nil {
		a.logger.Warn("failed to publish proposal.applied", "error", err)
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
