package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aawohq/aawo/internal/scheduling/domain"
)

type MockBlockRepository struct {
	mock.Mock
}

func (m *MockBlockRepository) Save(ctx context.Context, block *domain.CalendarBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *MockBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarBlock), args.Error(1)
}

func (m *MockBlockRepository) FindOccupying(ctx context.Context, interval domain.Interval) ([]*domain.CalendarBlock, error) {
	args := m.Called(ctx, interval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarBlock), args.Error(1)
}

func (m *MockBlockRepository) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.CalendarBlock, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarBlock), args.Error(1)
}

func (m *MockBlockRepository) FindByExternalID(ctx context.Context, provider, externalID string) (*domain.CalendarBlock, error) {
	args := m.Called(ctx, provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarBlock), args.Error(1)
}

func (m *MockBlockRepository) List(ctx context.Context, interval *domain.Interval, includeDeleted bool) ([]*domain.CalendarBlock, error) {
	args := m.Called(ctx, interval, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarBlock), args.Error(1)
}

type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) Save(ctx context.Context, proposal *domain.SchedulingProposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SchedulingProposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchedulingProposal), args.Error(1)
}

func (m *MockProposalRepository) List(ctx context.Context, status *domain.ProposalStatus, limit int) ([]*domain.SchedulingProposal, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SchedulingProposal), args.Error(1)
}

// noopUnitOfWork runs the function without a real transaction.
type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (noopUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

func draftProposal(t *testing.T, payloads ...domain.CreateBlockPayload) *domain.SchedulingProposal {
	t.Helper()
	horizon := iv(t, 0, 0, 23, 0)
	proposal := NewTestProposal(horizon)
	for _, p := range payloads {
		proposal.AddChange(nil, p)
	}
	return proposal
}

// NewTestProposal builds an empty draft for tests.
func NewTestProposal(horizon domain.Interval) *domain.SchedulingProposal {
	return domain.NewSchedulingProposal(domain.StrategyStable, horizon, 1000, "요약", "")
}

func TestApply_CreatesBlocksAndMarksApplied(t *testing.T) {
	blocks := new(MockBlockRepository)
	proposals := new(MockProposalRepository)

	proposal := draftProposal(t, domain.CreateBlockPayload{
		Title:     "보고서",
		StartsAt:  at(t, 9, 0),
		EndsAt:    at(t, 10, 0),
		BlockType: domain.BlockTypeTask,
	})

	proposals.On("FindByID", mock.Anything, proposal.ID()).Return(proposal, nil)
	blocks.On("FindOccupying", mock.Anything, mock.Anything).Return([]*domain.CalendarBlock{}, nil)
	blocks.On("Save", mock.Anything, mock.Anything).Return(nil)
	proposals.On("Save", mock.Anything, proposal).Return(nil)

	applier := NewProposalApplier(blocks, proposals, noopUnitOfWork{}, nil, nil)
	result, err := applier.Apply(context.Background(), proposal.ID())
	require.NoError(t, err)

	assert.Len(t, result.CreatedBlocks, 1)
	assert.Empty(t, result.UpdatedBlocks)
	assert.Empty(t, result.SkippedChanges)
	assert.Equal(t, domain.ProposalStatusApplied, proposal.Status())
	assert.Equal(t, domain.BlockSourceScheduler, result.CreatedBlocks[0].Source())
	blocks.AssertExpectations(t)
	proposals.AssertExpectations(t)
}

func TestApply_SkipsConflictingChanges(t *testing.T) {
	blocks := new(MockBlockRepository)
	proposals := new(MockProposalRepository)

	conflicting := domain.CreateBlockPayload{
		Title: "충돌", StartsAt: at(t, 9, 0), EndsAt: at(t, 10, 0), BlockType: domain.BlockTypeTask,
	}
	clean := domain.CreateBlockPayload{
		Title: "정상", StartsAt: at(t, 14, 0), EndsAt: at(t, 15, 0), BlockType: domain.BlockTypeTask,
	}
	proposal := draftProposal(t, conflicting, clean)

	occupied, err := domain.NewCalendarBlock("기존 일정", iv(t, 9, 30, 10, 30), domain.BlockTypeMeeting, domain.BlockSourceUser, nil)
	require.NoError(t, err)

	proposals.On("FindByID", mock.Anything, proposal.ID()).Return(proposal, nil)
	blocks.On("FindOccupying", mock.Anything, mock.MatchedBy(func(iv domain.Interval) bool {
		return iv.Start.Equal(at(t, 9, 0))
	})).Return([]*domain.CalendarBlock{occupied}, nil)
	blocks.On("FindOccupying", mock.Anything, mock.MatchedBy(func(iv domain.Interval) bool {
		return iv.Start.Equal(at(t, 14, 0))
	})).Return([]*domain.CalendarBlock{}, nil)
	blocks.On("Save", mock.Anything, mock.Anything).Return(nil)
	proposals.On("Save", mock.Anything, proposal).Return(nil)

	applier := NewProposalApplier(blocks, proposals, noopUnitOfWork{}, nil, nil)
	result, err := applier.Apply(context.Background(), proposal.ID())
	require.NoError(t, err)

	assert.Len(t, result.CreatedBlocks, 1)
	assert.Equal(t, "정상", result.CreatedBlocks[0].Title())
	require.Len(t, result.SkippedChanges, 1)
	assert.Equal(t, "충돌", result.SkippedChanges[0].Payload.Title)
	assert.Equal(t, domain.ProposalStatusApplied, proposal.Status())
}

func TestApply_RejectsNonDraft(t *testing.T) {
	blocks := new(MockBlockRepository)
	proposals := new(MockProposalRepository)

	proposal := draftProposal(t)
	require.NoError(t, proposal.MarkApplied())

	proposals.On("FindByID", mock.Anything, proposal.ID()).Return(proposal, nil)

	applier := NewProposalApplier(blocks, proposals, noopUnitOfWork{}, nil, nil)
	_, err := applier.Apply(context.Background(), proposal.ID())
	assert.ErrorIs(t, err, domain.ErrProposalNotDraft)
	blocks.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApply_NotFound(t *testing.T) {
	blocks := new(MockBlockRepository)
	proposals := new(MockProposalRepository)

	id := uuid.New()
	proposals.On("FindByID", mock.Anything, id).Return(nil, domain.ErrProposalNotFound)

	applier := NewProposalApplier(blocks, proposals, noopUnitOfWork{}, nil, nil)
	_, err := applier.Apply(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
}
