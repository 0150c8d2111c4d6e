package domain

import (
	"strconv"
	"strings"
	"time"
)

// dayKeys indexes weekdays the way profiles store them, Monday first.
var dayKeys = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// DayKey returns the profile key for a weekday.
func DayKey(d time.Weekday) string {
	// time.Weekday counts from Sunday
	return dayKeys[(int(d)+6)%7]
}

// ClockRange is a wall-clock range within a single day, "HH:MM" endpoints.
type ClockRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeekSchedule maps day keys (mon..sun) to wall-clock ranges.
type WeekSchedule map[string][]ClockRange

// WeightedWindow is an interval carrying a deep-work weight.
type WeightedWindow struct {
	Interval Interval
	Weight   float64
}

// DeepWorkWindow is a weekly recurring window with a focus weight.
type DeepWorkWindow struct {
	Day    string  `json:"day"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Weight float64 `json:"weight"`
}

// ResolveWorkWindows expands a weekly schedule over the horizon, removes
// the lunch range, clips to the horizon and merges the result. Entries
// that fail to parse or have end before start are skipped.
func ResolveWorkWindows(week WeekSchedule, lunch *ClockRange, horizon Interval, loc *time.Location) []Interval {
	var windows []Interval
	for _, day := range daysOf(horizon, loc) {
		key := DayKey(day.Weekday())
		for _, cr := range week[key] {
			iv, ok := clockInterval(day, cr, loc)
			if !ok {
				continue
			}
			free := []Interval{iv}
			if lunch != nil {
				if lv, ok := clockInterval(day, *lunch, loc); ok {
					free = Subtract(free, []Interval{lv})
				}
			}
			for _, f := range free {
				if clipped, ok := clip(f, horizon); ok {
					windows = append(windows, clipped)
				}
			}
		}
	}
	return Merge(windows)
}

// ResolveDeepWork expands weekly deep-work windows over the horizon.
// Windows are clipped to the horizon but not merged, so weights stay
// attached to their source entry.
func ResolveDeepWork(entries []DeepWorkWindow, horizon Interval, loc *time.Location) []WeightedWindow {
	var out []WeightedWindow
	for _, day := range daysOf(horizon, loc) {
		key := DayKey(day.Weekday())
		for _, e := range entries {
			if e.Day != key {
				continue
			}
			iv, ok := clockInterval(day, ClockRange{Start: e.Start, End: e.End}, loc)
			if !ok {
				continue
			}
			if clipped, ok := clip(iv, horizon); ok {
				out = append(out, WeightedWindow{Interval: clipped, Weight: e.Weight})
			}
		}
	}
	return out
}

// daysOf returns midnight (in loc) for every calendar day the horizon touches.
func daysOf(horizon Interval, loc *time.Location) []time.Time {
	var days []time.Time
	start := horizon.Start.In(loc)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for day.Before(horizon.End.In(loc)) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func clockInterval(day time.Time, cr ClockRange, loc *time.Location) (Interval, bool) {
	sh, sm, ok := parseClock(cr.Start)
	if !ok {
		return Interval{}, false
	}
	eh, em, ok := parseClock(cr.End)
	if !ok {
		return Interval{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

func clip(iv, bounds Interval) (Interval, bool) {
	if iv.Start.Before(bounds.Start) {
		iv.Start = bounds.Start
	}
	if iv.End.After(bounds.End) {
		iv.End = bounds.End
	}
	if !iv.End.After(iv.Start) {
		return Interval{}, false
	}
	return iv, true
}

func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
