package domain

import (
	"errors"
	"sort"
	"time"
)

var ErrInvalidInterval = errors.New("interval end must be after start")

// Interval is a half-open time range [Start, End).
// All comparisons happen on the UTC instant, regardless of wall-clock zone.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval creates a validated interval.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Minutes returns the interval length in whole minutes.
func (iv Interval) Minutes() int {
	return int(iv.End.Sub(iv.Start) / time.Minute)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Contains reports whether t falls within the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Merge coalesces overlapping or touching intervals into a minimal
// sorted set. The input is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sortIntervals(sorted)

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes the busy set from the free set and returns the
// remaining fragments, sorted. Touching a boundary does not cut.
func Subtract(free, busy []Interval) []Interval {
	if len(free) == 0 {
		return nil
	}
	mergedBusy := Merge(busy)

	var out []Interval
	for _, f := range Merge(free) {
		cursor := f.Start
		for _, b := range mergedBusy {
			if !b.End.After(cursor) {
				continue
			}
			if !b.Start.Before(f.End) {
				break
			}
			if b.Start.After(cursor) {
				out = append(out, Interval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
			if !cursor.Before(f.End) {
				break
			}
		}
		if cursor.Before(f.End) {
			out = append(out, Interval{Start: cursor, End: f.End})
		}
	}
	return out
}

// TotalMinutes sums the lengths of all intervals in minutes.
func TotalMinutes(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.Minutes()
	}
	return total
}

// OverlapMinutes returns the number of minutes iv shares with other.
func (iv Interval) OverlapMinutes(other Interval) int {
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// CoerceTZ attaches loc to a naive timestamp and converts aware ones.
// A timestamp is treated as naive when it carries no zone information
// beyond UTC-as-default, which is how wire formats without offsets
// arrive after parsing.
func CoerceTZ(t time.Time, loc *time.Location, naive bool) time.Time {
	if naive {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return t.In(loc)
}

func sortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
}
