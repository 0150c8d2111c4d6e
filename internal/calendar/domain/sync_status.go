package domain

import (
	"context"
	"time"
)

// SyncStatus is the singleton mirror health row.
type SyncStatus struct {
	Provider       string     `json:"provider"`
	Connected      bool       `json:"connected"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Last429At      *time.Time `json:"last_429_at,omitempty"`
	Recent429Count int        `json:"recent_429_count"`
}

// RecordSuccess notes a successful remote round trip.
func (s *SyncStatus) RecordSuccess(now time.Time) {
	s.Connected = true
	s.LastSyncedAt = &now
	s.LastError = ""
}

// RecordThrottle notes a 429 answer.
func (s *SyncStatus) RecordThrottle(now time.Time) {
	s.Connected = true
	s.Last429At = &now
	s.Recent429Count++
}

// RecordError notes a failed round trip. Auth failures flip the
// connected flag.
func (s *SyncStatus) RecordError(message string, authFailure bool) {
	s.LastError = message
	if authFailure {
		s.Connected = false
	}
}

// SyncStatusRepository persists the singleton status row.
type SyncStatusRepository interface {
	Load(ctx context.Context) (*SyncStatus, error)
	Save(ctx context.Context, status *SyncStatus) error
}
