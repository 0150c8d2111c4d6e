package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// SyncStatusRepository persists the singleton mirror health row as id 1.
type SyncStatusRepository struct {
	conn database.Connection
}

// NewSyncStatusRepository creates the repository.
func NewSyncStatusRepository(conn database.Connection) *SyncStatusRepository {
	return &SyncStatusRepository{conn: conn}
}

var _ domain.SyncStatusRepository = (*SyncStatusRepository)(nil)

func (r *SyncStatusRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SyncStatusRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Load returns the status, or a disconnected default when none was
// saved yet.
func (r *SyncStatusRepository) Load(ctx context.Context) (*domain.SyncStatus, error) {
	query := r.rebind(`
		SELECT provider, connected, last_synced_at, last_error, last_429_at, recent_429_count
		FROM sync_status WHERE id = 1`)

	var (
		provider               string
		connected              bool
		lastSyncedAt, last429At *string
		lastError              string
		recent429Count         int
	)
	err := r.executor(ctx).QueryRow(ctx, query).Scan(
		&provider, &connected, &lastSyncedAt, &lastError, &last429At, &recent429Count)
	if err != nil {
		if database.IsNoRows(err) {
			return &domain.SyncStatus{Provider: domain.ProviderMicrosoft}, nil
		}
		return nil, fmt.Errorf("load sync status: %w", err)
	}

	status := &domain.SyncStatus{
		Provider:       provider,
		Connected:      connected,
		LastError:      lastError,
		Recent429Count: recent429Count,
	}
	status.LastSyncedAt, err = database.ParseNullTime(lastSyncedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid last_synced_at: %w", err)
	}
	status.Last429At, err = database.ParseNullTime(last429At)
	if err != nil {
		return nil, fmt.Errorf("invalid last_429_at: %w", err)
	}
	return status, nil
}

// Save writes the status, replacing any previous one.
func (r *SyncStatusRepository) Save(ctx context.Context, status *domain.SyncStatus) error {
	query := r.rebind(`
		INSERT INTO sync_status (id, provider, connected, last_synced_at, last_error, last_429_at, recent_429_count, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			provider = excluded.provider,
			connected = excluded.connected,
			last_synced_at = excluded.last_synced_at,
			last_error = excluded.last_error,
			last_429_at = excluded.last_429_at,
			recent_429_count = excluded.recent_429_count,
			updated_at = excluded.updated_at`)

	_, err := r.executor(ctx).Exec(ctx, query,
		status.Provider,
		status.Connected,
		database.FormatNullTime(status.LastSyncedAt),
		status.LastError,
		database.FormatNullTime(status.Last429At),
		status.Recent429Count,
		database.FormatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("save sync status: %w", err)
	}
	return nil
}
