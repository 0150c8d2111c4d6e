package services

import (
	"context"
	"time"

	"github.com/aawohq/aawo/internal/scheduling/domain"
)

const (
	nextSlotStep        = 30 * time.Minute
	nextSlotHorizonDays = 2

	minAdhocBlockMinutes = 30
	maxAdhocBlockMinutes = 120
)

// NextSlotFinder walks the calendar forward looking for the first gap
// that fits a single ad hoc block.
type NextSlotFinder struct {
	blocks domain.BlockRepository
}

// NewNextSlotFinder creates the finder.
func NewNextSlotFinder(blocks domain.BlockRepository) *NextSlotFinder {
	return &NextSlotFinder{blocks: blocks}
}

// Find returns the earliest interval within two days of now that no
// non-deleted block occupies, stepping at half-hour boundaries. The
// duration is the effort clamped to 30..120 minutes. Returns nil when
// the horizon is full.
func (f *NextSlotFinder) Find(ctx context.Context, now time.Time, effortMinutes int) (*domain.Interval, error) {
	duration := effortMinutes
	if duration < minAdhocBlockMinutes {
		duration = minAdhocBlockMinutes
	}
	if duration > maxAdhocBlockMinutes {
		duration = maxAdhocBlockMinutes
	}

	horizonEnd := now.AddDate(0, 0, nextSlotHorizonDays)
	for cursor := now.Truncate(nextSlotStep); cursor.Before(horizonEnd); cursor = cursor.Add(nextSlotStep) {
		candidate := domain.Interval{Start: cursor, End: cursor.Add(time.Duration(duration) * time.Minute)}
		conflicts, err := f.blocks.FindOccupying(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			return &candidate, nil
		}
	}
	return nil, nil
}
