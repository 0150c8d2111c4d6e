package services

import (
	"github.com/aawohq/aawo/internal/scheduling/domain"
)

// DefaultMinSlotMinutes drops fragments too short to hold any work.
const DefaultMinSlotMinutes = 15

// FreeSlotFinder computes free intervals from work windows and busy time.
type FreeSlotFinder struct {
	minMinutes int
}

// NewFreeSlotFinder creates a finder. minMinutes <= 0 uses the default.
func NewFreeSlotFinder(minMinutes int) *FreeSlotFinder {
	if minMinutes <= 0 {
		minMinutes = DefaultMinSlotMinutes
	}
	return &FreeSlotFinder{minMinutes: minMinutes}
}

// Find subtracts busy intervals from the work windows and returns the
// remaining fragments of at least the minimum length, sorted by start.
func (f *FreeSlotFinder) Find(windows, busy []domain.Interval) []domain.Interval {
	var out []domain.Interval
	for _, slot := range domain.Subtract(windows, busy) {
		if slot.Minutes() >= f.minMinutes {
			out = append(out, slot)
		}
	}
	return out
}

// BusyIntervals extracts occupied intervals from blocks.
func BusyIntervals(blocks []*domain.CalendarBlock) []domain.Interval {
	var busy []domain.Interval
	for _, b := range blocks {
		if b.IsOccupying() {
			busy = append(busy, b.Interval())
		}
	}
	return busy
}
