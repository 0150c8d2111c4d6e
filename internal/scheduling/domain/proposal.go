package domain

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrProposalNotFound = errors.New("scheduling proposal not found")
	ErrProposalNotDraft = errors.New("scheduling proposal is not a draft")
	ErrUnknownStrategy  = errors.New("unknown scheduling strategy")
)

// Strategy selects the scheduling policy.
type Strategy string

const (
	StrategyStable Strategy = "stable"
	StrategyUrgent Strategy = "urgent"
	StrategyFocus  Strategy = "focus"
)

// ParseStrategy validates a strategy name. Empty defaults to stable.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyStable, nil
	case StrategyStable, StrategyUrgent, StrategyFocus:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusApplied  ProposalStatus = "applied"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// ChangeType classifies a proposed change.
type ChangeType string

const (
	ChangeCreateBlock ChangeType = "create_block"
)

// CreateBlockPayload is the payload of a create_block change.
type CreateBlockPayload struct {
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	BlockType BlockType `json:"block_type"`
}

// ProposedChange is one planned calendar mutation inside a proposal.
type ProposedChange struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	TaskID     *uuid.UUID
	Type       ChangeType
	Payload    CreateBlockPayload
	CreatedAt  time.Time
}

// NewProposedChange creates a create_block change for a task.
func NewProposedChange(proposalID uuid.UUID, taskID *uuid.UUID, payload CreateBlockPayload) ProposedChange {
	return ProposedChange{
		ID:         uuid.New(),
		ProposalID: proposalID,
		TaskID:     taskID,
		Type:       ChangeCreateBlock,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
}

// SchedulingProposal is a draft plan produced by the scheduler. Applying
// it turns its changes into calendar blocks.
type SchedulingProposal struct {
	sharedDomain.BaseEntity
	status      ProposalStatus
	strategy    Strategy
	summary     string
	explanation string
	objective   float64
	horizon     Interval
	changes     []ProposedChange
	appliedAt   *time.Time
}

// NewSchedulingProposal creates a draft proposal.
func NewSchedulingProposal(strategy Strategy, horizon Interval, objective float64, summary, explanation string) *SchedulingProposal {
	return &SchedulingProposal{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		status:      ProposalStatusDraft,
		strategy:    strategy,
		summary:     summary,
		explanation: explanation,
		objective:   objective,
		horizon:     horizon,
	}
}

func (p *SchedulingProposal) Status() ProposalStatus    { return p.status }
func (p *SchedulingProposal) Strategy() Strategy        { return p.strategy }
func (p *SchedulingProposal) Summary() string           { return p.summary }
func (p *SchedulingProposal) Explanation() string       { return p.explanation }
func (p *SchedulingProposal) Objective() float64        { return p.objective }
func (p *SchedulingProposal) Horizon() Interval         { return p.horizon }
func (p *SchedulingProposal) Changes() []ProposedChange { return p.changes }
func (p *SchedulingProposal) AppliedAt() *time.Time     { return p.appliedAt }

// AddChange appends a change to the draft.
func (p *SchedulingProposal) AddChange(taskID *uuid.UUID, payload CreateBlockPayload) {
	p.changes = append(p.changes, NewProposedChange(p.ID(), taskID, payload))
}

// MarkApplied transitions the proposal out of draft.
func (p *SchedulingProposal) MarkApplied() error {
	if p.status != ProposalStatusDraft {
		return ErrProposalNotDraft
	}
	now := time.Now().UTC()
	p.status = ProposalStatusApplied
	p.appliedAt = &now
	p.Touch()
	return nil
}

// MarkRejected discards the draft.
func (p *SchedulingProposal) MarkRejected() error {
	if p.status != ProposalStatusDraft {
		return ErrProposalNotDraft
	}
	p.status = ProposalStatusRejected
	p.Touch()
	return nil
}

// RehydrateSchedulingProposal recreates a proposal from persisted state.
func RehydrateSchedulingProposal(
	id uuid.UUID,
	status ProposalStatus,
	strategy Strategy,
	summary, explanation string,
	objective float64,
	horizon Interval,
	changes []ProposedChange,
	appliedAt *time.Time,
	createdAt, updatedAt time.Time,
) *SchedulingProposal {
	return &SchedulingProposal{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		status:      status,
		strategy:    strategy,
		summary:     summary,
		explanation: explanation,
		objective:   objective,
		horizon:     horizon,
		changes:     changes,
		appliedAt:   appliedAt,
	}
}
