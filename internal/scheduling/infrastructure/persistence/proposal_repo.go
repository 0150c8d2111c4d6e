package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// ProposalRepository persists proposals and their changes. Changes are
// child rows rewritten wholesale on every save.
type ProposalRepository struct {
	conn database.Connection
}

// NewProposalRepository creates the repository.
func NewProposalRepository(conn database.Connection) *ProposalRepository {
	return &ProposalRepository{conn: conn}
}

var _ domain.ProposalRepository = (*ProposalRepository)(nil)

const proposalColumns = `id, status, strategy, summary, explanation, objective,
	horizon_start, horizon_end, created_at, updated_at, applied_at`

func (r *ProposalRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *ProposalRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts a proposal and rewrites its change rows.
func (r *ProposalRepository) Save(ctx context.Context, proposal *domain.SchedulingProposal) error {
	exec := r.executor(ctx)

	query := r.rebind(`
		INSERT INTO scheduling_proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			strategy = excluded.strategy,
			summary = excluded.summary,
			explanation = excluded.explanation,
			objective = excluded.objective,
			horizon_start = excluded.horizon_start,
			horizon_end = excluded.horizon_end,
			updated_at = excluded.updated_at,
			applied_at = excluded.applied_at`)

	_, err := exec.Exec(ctx, query,
		proposal.ID().String(),
		string(proposal.Status()),
		string(proposal.Strategy()),
		proposal.Summary(),
		proposal.Explanation(),
		proposal.Objective(),
		database.FormatTime(proposal.Horizon().Start),
		database.FormatTime(proposal.Horizon().End),
		database.FormatTime(proposal.CreatedAt()),
		database.FormatTime(proposal.UpdatedAt()),
		database.FormatNullTime(proposal.AppliedAt()),
	)
	if err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}

	_, err = exec.Exec(ctx, r.rebind(`DELETE FROM proposal_changes WHERE proposal_id = ?`), proposal.ID().String())
	if err != nil {
		return fmt.Errorf("clear proposal changes: %w", err)
	}

	insert := r.rebind(`
		INSERT INTO proposal_changes (id, proposal_id, task_id, change_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, change := range proposal.Changes() {
		payload, err := json.Marshal(change.Payload)
		if err != nil {
			return fmt.Errorf("encode change payload: %w", err)
		}
		var taskID any
		if change.TaskID != nil {
			taskID = change.TaskID.String()
		}
		_, err = exec.Exec(ctx, insert,
			change.ID.String(),
			change.ProposalID.String(),
			taskID,
			string(change.Type),
			string(payload),
			database.FormatTime(change.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("save proposal change: %w", err)
		}
	}
	return nil
}

// FindByID loads one proposal with its changes.
func (r *ProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SchedulingProposal, error) {
	query := r.rebind(`SELECT ` + proposalColumns + ` FROM scheduling_proposals WHERE id = ?`)
	proposal, err := scanProposal(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}

	changes, err := r.loadChanges(ctx, id)
	if err != nil {
		return nil, err
	}
	return withChanges(proposal, changes), nil
}

// List returns proposals newest first, optionally by status.
func (r *ProposalRepository) List(ctx context.Context, status *domain.ProposalStatus, limit int) ([]*domain.SchedulingProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM scheduling_proposals`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	proposals, err := func() ([]*domain.SchedulingProposal, error) {
		defer rows.Close()
		var out []*domain.SchedulingProposal
		for rows.Next() {
			proposal, err := scanProposal(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, proposal)
		}
		return out, rows.Err()
	}()
	if err != nil {
		return nil, err
	}

	for i, proposal := range proposals {
		changes, err := r.loadChanges(ctx, proposal.ID())
		if err != nil {
			return nil, err
		}
		proposals[i] = withChanges(proposal, changes)
	}
	return proposals, nil
}

func (r *ProposalRepository) loadChanges(ctx context.Context, proposalID uuid.UUID) ([]domain.ProposedChange, error) {
	query := r.rebind(`
		SELECT id, proposal_id, task_id, change_type, payload, created_at
		FROM proposal_changes WHERE proposal_id = ? ORDER BY created_at`)
	rows, err := r.executor(ctx).Query(ctx, query, proposalID.String())
	if err != nil {
		return nil, fmt.Errorf("load proposal changes: %w", err)
	}
	defer rows.Close()

	var out []domain.ProposedChange
	for rows.Next() {
		var (
			id, propID           string
			taskID               *string
			changeType, payload  string
			createdAt            string
		)
		if err := rows.Scan(&id, &propID, &taskID, &changeType, &payload, &createdAt); err != nil {
			return nil, err
		}

		changeID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid change id: %w", err)
		}
		parentID, err := uuid.Parse(propID)
		if err != nil {
			return nil, fmt.Errorf("invalid change proposal_id: %w", err)
		}
		var task *uuid.UUID
		if taskID != nil && *taskID != "" {
			parsed, err := uuid.Parse(*taskID)
			if err != nil {
				return nil, fmt.Errorf("invalid change task_id: %w", err)
			}
			task = &parsed
		}
		var decoded domain.CreateBlockPayload
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			return nil, fmt.Errorf("decode change payload: %w", err)
		}
		created, err := database.ParseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid change created_at: %w", err)
		}

		out = append(out, domain.ProposedChange{
			ID:         changeID,
			ProposalID: parentID,
			TaskID:     task,
			Type:       domain.ChangeType(changeType),
			Payload:    decoded,
			CreatedAt:  created,
		})
	}
	return out, rows.Err()
}

func scanProposal(row database.Row) (*domain.SchedulingProposal, error) {
	var (
		id, status, strategy       string
		summary, explanation       string
		objective                  float64
		horizonStart, horizonEnd   string
		createdAt, updatedAt       string
		appliedAt                  *string
	)
	err := row.Scan(&id, &status, &strategy, &summary, &explanation, &objective,
		&horizonStart, &horizonEnd, &createdAt, &updatedAt, &appliedAt)
	if err != nil {
		return nil, err
	}

	proposalID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid proposal id: %w", err)
	}
	start, err := database.ParseTime(horizonStart)
	if err != nil {
		return nil, fmt.Errorf("invalid horizon_start: %w", err)
	}
	end, err := database.ParseTime(horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid horizon_end: %w", err)
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	applied, err := database.ParseNullTime(appliedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid applied_at: %w", err)
	}

	return domain.RehydrateSchedulingProposal(
		proposalID,
		domain.ProposalStatus(status),
		domain.Strategy(strategy),
		summary, explanation,
		objective,
		domain.Interval{Start: start, End: end},
		nil,
		applied,
		created, updated,
	), nil
}

func withChanges(proposal *domain.SchedulingProposal, changes []domain.ProposedChange) *domain.SchedulingProposal {
	return domain.RehydrateSchedulingProposal(
		proposal.ID(),
		proposal.Status(),
		proposal.Strategy(),
		proposal.Summary(),
		proposal.Explanation(),
		proposal.Objective(),
		proposal.Horizon(),
		changes,
		proposal.AppliedAt(),
		proposal.CreatedAt(),
		proposal.UpdatedAt(),
	)
}
