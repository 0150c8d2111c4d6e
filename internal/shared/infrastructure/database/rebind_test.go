package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		driver   Driver
		query    string
		expected string
	}{
		{
			name:     "sqlite unchanged",
			driver:   DriverSQLite,
			query:    "SELECT * FROM tasks WHERE id = ? AND status = ?",
			expected: "SELECT * FROM tasks WHERE id = ? AND status = ?",
		},
		{
			name:     "postgres numbered",
			driver:   DriverPostgres,
			query:    "SELECT * FROM tasks WHERE id = ? AND status = ?",
			expected: "SELECT * FROM tasks WHERE id = $1 AND status = $2",
		},
		{
			name:     "question mark inside string literal",
			driver:   DriverPostgres,
			query:    "UPDATE tasks SET title = '?' WHERE id = ?",
			expected: "UPDATE tasks SET title = '?' WHERE id = $1",
		},
		{
			name:     "no placeholders",
			driver:   DriverPostgres,
			query:    "SELECT COUNT(*) FROM tasks",
			expected: "SELECT COUNT(*) FROM tasks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rebind(tt.driver, tt.query))
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	s := FormatTime(now)
	parsed, err := ParseTime(s)
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestNullTimeRoundTrip(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, FormatNullTime(nil))

		parsed, err := ParseNullTime(nil)
		require.NoError(t, err)
		assert.Nil(t, parsed)

		empty := ""
		parsed, err = ParseNullTime(&empty)
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("value round trips", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		stored, ok := FormatNullTime(&now).(string)
		require.True(t, ok)

		parsed, err := ParseNullTime(&stored)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.True(t, now.Equal(*parsed))
	})
}
