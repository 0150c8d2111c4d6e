package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/shared/audit"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// AuditRepository appends audit entries to the audit_log table.
type AuditRepository struct {
	conn database.Connection
}

// NewAuditRepository creates the repository.
func NewAuditRepository(conn database.Connection) *AuditRepository {
	return &AuditRepository{conn: conn}
}

var _ audit.Repository = (*AuditRepository)(nil)

func (r *AuditRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *AuditRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Append writes one entry. Entries are never updated.
func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	payload := entry.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	query := r.rebind(`
		INSERT INTO audit_log (id, actor, action, entity_type, entity_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.executor(ctx).Exec(ctx, query,
		entry.ID.String(),
		entry.Actor,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		string(payload),
		database.FormatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `SELECT id, actor, action, entity_type, entity_id, payload, created_at FROM audit_log ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			id, actor, action  string
			entity, entityID   string
			payload, createdAt string
		)
		if err := rows.Scan(&id, &actor, &action, &entity, &entityID, &payload, &createdAt); err != nil {
			return nil, err
		}

		entryID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid audit id: %w", err)
		}
		created, err := database.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at: %w", err)
		}

		out = append(out, audit.Entry{
			ID:        entryID,
			Actor:     actor,
			Action:    action,
			Entity:    entity,
			EntityID:  entityID,
			Payload:   json.RawMessage(payload),
			CreatedAt: created,
		})
	}
	return out, rows.Err()
}
