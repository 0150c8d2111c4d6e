package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func defaultWeek() WeekSchedule {
	week := WeekSchedule{}
	for _, day := range []string{"mon", "tue", "wed", "thu", "fri"} {
		week[day] = []ClockRange{{Start: "09:00", End: "18:00"}}
	}
	return week
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "mon", DayKey(time.Monday))
	assert.Equal(t, "sun", DayKey(time.Sunday))
	assert.Equal(t, "sat", DayKey(time.Saturday))
}

func TestResolveWorkWindows(t *testing.T) {
	loc := seoul(t)
	// 2026-01-05 is a Monday.
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)

	t.Run("lunch is subtracted", func(t *testing.T) {
		horizon := Interval{Start: monday, End: monday.AddDate(0, 0, 1)}
		lunch := &ClockRange{Start: "12:00", End: "13:00"}

		windows := ResolveWorkWindows(defaultWeek(), lunch, horizon, loc)
		require.Len(t, windows, 2)
		assert.Equal(t, 9, windows[0].Start.In(loc).Hour())
		assert.Equal(t, 12, windows[0].End.In(loc).Hour())
		assert.Equal(t, 13, windows[1].Start.In(loc).Hour())
		assert.Equal(t, 18, windows[1].End.In(loc).Hour())
	})

	t.Run("weekend days produce nothing", func(t *testing.T) {
		saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, loc)
		horizon := Interval{Start: saturday, End: saturday.AddDate(0, 0, 2)}

		windows := ResolveWorkWindows(defaultWeek(), nil, horizon, loc)
		assert.Empty(t, windows)
	})

	t.Run("horizon clips windows", func(t *testing.T) {
		horizon := Interval{
			Start: time.Date(2026, 1, 5, 10, 30, 0, 0, loc),
			End:   time.Date(2026, 1, 5, 16, 0, 0, 0, loc),
		}

		windows := ResolveWorkWindows(defaultWeek(), nil, horizon, loc)
		require.Len(t, windows, 1)
		assert.True(t, windows[0].Start.Equal(horizon.Start))
		assert.True(t, windows[0].End.Equal(horizon.End))
	})

	t.Run("invalid entries are skipped", func(t *testing.T) {
		week := WeekSchedule{
			"mon": []ClockRange{
				{Start: "18:00", End: "09:00"},
				{Start: "not-a-clock", End: "10:00"},
				{Start: "14:00", End: "15:00"},
			},
		}
		horizon := Interval{Start: monday, End: monday.AddDate(0, 0, 1)}

		windows := ResolveWorkWindows(week, nil, horizon, loc)
		require.Len(t, windows, 1)
		assert.Equal(t, 14, windows[0].Start.In(loc).Hour())
	})

	t.Run("multi-day horizon covers each day", func(t *testing.T) {
		horizon := Interval{Start: monday, End: monday.AddDate(0, 0, 3)}

		windows := ResolveWorkWindows(defaultWeek(), nil, horizon, loc)
		assert.Len(t, windows, 3)
	})
}

func TestResolveDeepWork(t *testing.T) {
	loc := seoul(t)
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	horizon := Interval{Start: monday, End: monday.AddDate(0, 0, 7)}

	entries := []DeepWorkWindow{
		{Day: "tue", Start: "10:00", End: "12:00", Weight: 0.8},
		{Day: "bogus", Start: "10:00", End: "12:00", Weight: 1},
	}

	windows := ResolveDeepWork(entries, horizon, loc)
	require.Len(t, windows, 1)
	assert.Equal(t, 0.8, windows[0].Weight)
	assert.Equal(t, time.Tuesday, windows[0].Interval.Start.In(loc).Weekday())
	assert.Equal(t, 120, windows[0].Interval.Minutes())
}
