package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendarBlock(t *testing.T) {
	interval := iv(t, 9, 0, 10, 0)

	t.Run("valid", func(t *testing.T) {
		block, err := NewCalendarBlock("집중 작업", interval, BlockTypeTask, BlockSourceUser, nil)
		require.NoError(t, err)
		assert.Equal(t, BlockStatusActive, block.Status())
		assert.False(t, block.Locked())
		assert.True(t, block.IsOccupying())
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := NewCalendarBlock("", interval, BlockTypeTask, BlockSourceUser, nil)
		assert.ErrorIs(t, err, ErrBlockTitleNeeded)
	})

	t.Run("inverted interval", func(t *testing.T) {
		_, err := NewCalendarBlock("x", Interval{Start: interval.End, End: interval.Start}, BlockTypeTask, BlockSourceUser, nil)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestImportedBlockIsLocked(t *testing.T) {
	block, err := NewImportedBlock("외부 회의", iv(t, 9, 0, 10, 0), "microsoft", "ev-1")
	require.NoError(t, err)
	assert.True(t, block.Locked())
	assert.Equal(t, BlockTypeExternal, block.Type())
	assert.Equal(t, BlockSourceImport, block.Source())

	err = block.MoveTo(iv(t, 11, 0, 12, 0))
	assert.ErrorIs(t, err, ErrBlockLocked)
}

func TestBlockLifecycle(t *testing.T) {
	block, err := NewCalendarBlock("task", iv(t, 9, 0, 10, 0), BlockTypeTask, BlockSourceScheduler, nil)
	require.NoError(t, err)

	block.MarkMirrored("microsoft", "ev-9")
	assert.Equal(t, BlockStatusMirrored, block.Status())
	assert.Equal(t, "ev-9", block.ExternalID())
	assert.True(t, block.IsOccupying())

	block.MarkDeleted()
	assert.Equal(t, BlockStatusDeleted, block.Status())
	assert.False(t, block.IsOccupying())

	err = block.MoveTo(iv(t, 11, 0, 12, 0))
	assert.ErrorIs(t, err, ErrBlockDeleted)
}

func TestProposalLifecycle(t *testing.T) {
	horizon := iv(t, 0, 0, 23, 0)
	proposal := NewSchedulingProposal(StrategyStable, horizon, 990, "요약", "설명")
	proposal.AddChange(nil, CreateBlockPayload{
		Title:     "task",
		StartsAt:  at(t, 9, 0),
		EndsAt:    at(t, 10, 0),
		BlockType: BlockTypeTask,
	})

	require.Len(t, proposal.Changes(), 1)
	assert.Equal(t, ProposalStatusDraft, proposal.Status())

	require.NoError(t, proposal.MarkApplied())
	assert.Equal(t, ProposalStatusApplied, proposal.Status())
	require.NotNil(t, proposal.AppliedAt())
	assert.WithinDuration(t, time.Now(), *proposal.AppliedAt(), time.Minute)

	assert.ErrorIs(t, proposal.MarkApplied(), ErrProposalNotDraft)
	assert.ErrorIs(t, proposal.MarkRejected(), ErrProposalNotDraft)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyStable, s)

	s, err = ParseStrategy("focus")
	require.NoError(t, err)
	assert.Equal(t, StrategyFocus, s)

	_, err = ParseStrategy("chaotic")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
