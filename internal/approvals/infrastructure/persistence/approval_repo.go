package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/approvals/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// ApprovalRepository persists approval requests.
type ApprovalRepository struct {
	conn database.Connection
}

// NewApprovalRepository creates the repository.
func NewApprovalRepository(conn database.Connection) *ApprovalRepository {
	return &ApprovalRepository{conn: conn}
}

var _ domain.Repository = (*ApprovalRepository)(nil)

const approvalColumns = `id, kind, status, title, payload, reason, created_at, updated_at, resolved_at`

func (r *ApprovalRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *ApprovalRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts a request.
func (r *ApprovalRepository) Save(ctx context.Context, request *domain.ApprovalRequest) error {
	query := r.rebind(`
		INSERT INTO approvals (` + approvalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			status = excluded.status,
			title = excluded.title,
			payload = excluded.payload,
			reason = excluded.reason,
			updated_at = excluded.updated_at,
			resolved_at = excluded.resolved_at`)

	payload := request.Payload()
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	_, err := r.executor(ctx).Exec(ctx, query,
		request.ID().String(),
		string(request.Kind()),
		string(request.Status()),
		request.Title(),
		string(payload),
		request.Reason(),
		database.FormatTime(request.CreatedAt()),
		database.FormatTime(request.UpdatedAt()),
		database.FormatNullTime(request.ResolvedAt()),
	)
	if err != nil {
		return fmt.Errorf("save approval: %w", err)
	}
	return nil
}

// FindByID loads one request.
func (r *ApprovalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	query := r.rebind(`SELECT ` + approvalColumns + ` FROM approvals WHERE id = ?`)
	request, err := scanApproval(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find approval: %w", err)
	}
	return request, nil
}

// List returns requests matching the filter, newest first.
func (r *ApprovalRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.ApprovalRequest, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}

	query := `SELECT ` + approvalColumns + ` FROM approvals`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []*domain.ApprovalRequest
	for rows.Next() {
		request, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

// CountPending returns the number of unresolved requests.
func (r *ApprovalRepository) CountPending(ctx context.Context) (int, error) {
	query := r.rebind(`SELECT COUNT(*) FROM approvals WHERE status = ?`)
	var count int
	err := r.executor(ctx).QueryRow(ctx, query, string(domain.StatusPending)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending approvals: %w", err)
	}
	return count, nil
}

func scanApproval(row database.Row) (*domain.ApprovalRequest, error) {
	var (
		id, kind, status     string
		title, payload       string
		reason               string
		createdAt, updatedAt string
		resolvedAt           *string
	)
	err := row.Scan(&id, &kind, &status, &title, &payload, &reason, &createdAt, &updatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid approval id: %w", err)
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	resolved, err := database.ParseNullTime(resolvedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid resolved_at: %w", err)
	}

	return domain.RehydrateApprovalRequest(
		requestID,
		domain.Kind(kind),
		domain.Status(status),
		title,
		json.RawMessage(payload),
		reason,
		resolved,
		created, updated,
	), nil
}
