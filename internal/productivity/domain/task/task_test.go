package task

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tk, err := NewTask("  보고서 작성  ", "")
		require.NoError(t, err)
		assert.Equal(t, "보고서 작성", tk.Title())
		assert.Equal(t, StatusTodo, tk.Status())
		assert.Equal(t, DefaultPriority, tk.Priority())
		assert.Equal(t, DefaultEffort, tk.EffortMinutes())
		assert.Equal(t, SourceUser, tk.Source())
		assert.Equal(t, 1, tk.Version())
		assert.Nil(t, tk.DueAt())
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := NewTask("   ", SourceUser)
		assert.ErrorIs(t, err, ErrEmptyTitle)
	})

	t.Run("title too long", func(t *testing.T) {
		_, err := NewTask(strings.Repeat("가", MaxTitleLength+1), SourceUser)
		assert.ErrorIs(t, err, ErrTitleTooLong)
	})
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusTodo, StatusInProgress, true},
		{StatusTodo, StatusBlocked, true},
		{StatusTodo, StatusCanceled, true},
		{StatusTodo, StatusDone, false},
		{StatusInProgress, StatusDone, true},
		{StatusInProgress, StatusBlocked, true},
		{StatusInProgress, StatusCanceled, false},
		{StatusBlocked, StatusTodo, true},
		{StatusBlocked, StatusInProgress, true},
		{StatusBlocked, StatusCanceled, true},
		{StatusDone, StatusTodo, false},
		{StatusCanceled, StatusTodo, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionTo(t *testing.T) {
	tk, err := NewTask("task", SourceUser)
	require.NoError(t, err)

	require.NoError(t, tk.TransitionTo(StatusInProgress))
	assert.Equal(t, StatusInProgress, tk.Status())

	// Same status is a no-op.
	require.NoError(t, tk.TransitionTo(StatusInProgress))

	err = tk.TransitionTo(StatusTodo)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestComplete(t *testing.T) {
	t.Run("from todo goes through in_progress", func(t *testing.T) {
		tk, err := NewTask("task", SourceUser)
		require.NoError(t, err)
		require.NoError(t, tk.Complete())
		assert.Equal(t, StatusDone, tk.Status())
	})

	t.Run("already done is idempotent", func(t *testing.T) {
		tk, err := NewTask("task", SourceUser)
		require.NoError(t, err)
		require.NoError(t, tk.Complete())
		require.NoError(t, tk.Complete())
	})

	t.Run("canceled cannot complete", func(t *testing.T) {
		tk, err := NewTask("task", SourceUser)
		require.NoError(t, err)
		require.NoError(t, tk.Cancel())
		assert.Error(t, tk.Complete())
	})
}

func TestCancel(t *testing.T) {
	t.Run("from in_progress goes through blocked", func(t *testing.T) {
		tk, err := NewTask("task", SourceUser)
		require.NoError(t, err)
		require.NoError(t, tk.TransitionTo(StatusInProgress))
		require.NoError(t, tk.Cancel())
		assert.Equal(t, StatusCanceled, tk.Status())
	})

	t.Run("done cannot cancel", func(t *testing.T) {
		tk, err := NewTask("task", SourceUser)
		require.NoError(t, err)
		require.NoError(t, tk.Complete())
		assert.Error(t, tk.Cancel())
	})
}

func TestSetters(t *testing.T) {
	tk, err := NewTask("task", SourceUser)
	require.NoError(t, err)

	assert.ErrorIs(t, tk.SetEffort(14), ErrInvalidEffort)
	assert.ErrorIs(t, tk.SetEffort(481), ErrInvalidEffort)
	require.NoError(t, tk.SetEffort(15))
	require.NoError(t, tk.SetEffort(90))
	assert.Equal(t, 90, tk.EffortMinutes())

	assert.ErrorIs(t, tk.SetPriority(0), ErrInvalidPriority)
	assert.ErrorIs(t, tk.SetPriority(5), ErrInvalidPriority)
	require.NoError(t, tk.SetPriority(PriorityP1))
	assert.Equal(t, PriorityP1, tk.Priority())

	due := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tk.SetDueAt(&due)
	require.NotNil(t, tk.DueAt())
	tk.SetDueAt(nil)
	assert.Nil(t, tk.DueAt())
}

func TestDueAtUTC(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tk, err := NewTask("task", SourceUser)
	require.NoError(t, err)
	assert.Nil(t, tk.DueAtUTC())

	due := time.Date(2026, 2, 1, 9, 0, 0, 0, seoul)
	tk.SetDueAt(&due)

	utc := tk.DueAtUTC()
	require.NotNil(t, utc)
	assert.Equal(t, time.UTC, utc.Location())
	assert.True(t, due.Equal(*utc))
}

func TestNewPriority(t *testing.T) {
	_, err := NewPriority(0)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	p, err := NewPriority(3)
	require.NoError(t, err)
	assert.Equal(t, "P3", p.String())
}
