package database

import (
	"strconv"
	"strings"
	"time"
)

// Rebind rewrites `?` placeholders into the driver's native form.
// Queries are written once with `?` and rebound at execution time,
// so the same repository code runs on SQLite and PostgreSQL.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inSingle := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inSingle = !inSingle
			b.WriteByte(c)
		case c == '?' && !inSingle:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Timestamps are stored as RFC3339 strings in both drivers so scans
// behave identically.

// FormatTime serializes a UTC timestamp for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime deserializes a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// FormatNullTime serializes an optional timestamp; nil becomes the empty string.
func FormatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseNullTime deserializes an optional stored timestamp.
func ParseNullTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
