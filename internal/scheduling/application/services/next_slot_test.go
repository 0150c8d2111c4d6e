package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aawohq/aawo/internal/scheduling/domain"
)

func TestNextSlotFinder_SkipsOccupiedSteps(t *testing.T) {
	blocks := new(MockBlockRepository)
	now := time.Date(2026, 3, 2, 9, 10, 0, 0, time.UTC)
	busyUntil := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	occupied, err := domain.NewCalendarBlock("기존 미팅",
		domain.Interval{Start: now.Add(-time.Hour), End: busyUntil},
		domain.BlockTypeMeeting, domain.BlockSourceUser, nil)
	require.NoError(t, err)

	blocks.On("FindOccupying", mock.Anything, mock.MatchedBy(func(iv domain.Interval) bool {
		return iv.Start.Before(busyUntil)
	})).Return([]*domain.CalendarBlock{occupied}, nil)
	blocks.On("FindOccupying", mock.Anything, mock.Anything).Return([]*domain.CalendarBlock{}, nil)

	finder := NewNextSlotFinder(blocks)
	slot, err := finder.Find(context.Background(), now, 45)
	require.NoError(t, err)
	require.NotNil(t, slot)

	assert.True(t, slot.Start.Equal(busyUntil))
	assert.Equal(t, 45, slot.Minutes())
}

func TestNextSlotFinder_ClampsDuration(t *testing.T) {
	blocks := new(MockBlockRepository)
	blocks.On("FindOccupying", mock.Anything, mock.Anything).Return([]*domain.CalendarBlock{}, nil)
	finder := NewNextSlotFinder(blocks)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	short, err := finder.Find(context.Background(), now, 15)
	require.NoError(t, err)
	require.NotNil(t, short)
	assert.Equal(t, 30, short.Minutes())

	long, err := finder.Find(context.Background(), now, 480)
	require.NoError(t, err)
	require.NotNil(t, long)
	assert.Equal(t, 120, long.Minutes())
}

func TestNextSlotFinder_FullHorizonReturnsNil(t *testing.T) {
	blocks := new(MockBlockRepository)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	occupied, err := domain.NewCalendarBlock("마감 주간",
		domain.Interval{Start: now, End: now.AddDate(0, 0, 3)},
		domain.BlockTypeMeeting, domain.BlockSourceUser, nil)
	require.NoError(t, err)
	blocks.On("FindOccupying", mock.Anything, mock.Anything).Return([]*domain.CalendarBlock{occupied}, nil)

	finder := NewNextSlotFinder(blocks)
	slot, err := finder.Find(context.Background(), now, 60)
	require.NoError(t, err)
	assert.Nil(t, slot)
}
