package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/meetings/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// MeetingRepository persists meetings and their extracted candidates.
type MeetingRepository struct {
	conn database.Connection
}

// NewMeetingRepository creates the repository.
func NewMeetingRepository(conn database.Connection) *MeetingRepository {
	return &MeetingRepository{conn: conn}
}

var _ domain.Repository = (*MeetingRepository)(nil)

const meetingColumns = `id, title, status, raw_text, transcript, error, created_at, updated_at`

const candidateColumns = `id, meeting_id, title, assignee, due_at, effort_minutes,
	confidence, rationale, source, status, task_id, created_at, updated_at`

func (r *MeetingRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *MeetingRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// SaveMeeting upserts a meeting.
func (r *MeetingRepository) SaveMeeting(ctx context.Context, meeting *domain.Meeting) error {
	query := r.rebind(`
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			raw_text = excluded.raw_text,
			transcript = excluded.transcript,
			error = excluded.error,
			updated_at = excluded.updated_at`)

	_, err := r.executor(ctx).Exec(ctx, query,
		meeting.ID().String(),
		meeting.Title(),
		string(meeting.Status()),
		meeting.RawText(),
		meeting.Transcript(),
		meeting.ErrMessage(),
		database.FormatTime(meeting.CreatedAt()),
		database.FormatTime(meeting.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save meeting: %w", err)
	}
	return nil
}

// FindMeetingByID loads one meeting.
func (r *MeetingRepository) FindMeetingByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	query := r.rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`)
	meeting, err := scanMeeting(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find meeting: %w", err)
	}
	return meeting, nil
}

// ListMeetings returns meetings newest first.
func (r *MeetingRepository) ListMeetings(ctx context.Context, limit int) ([]*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meeting)
	}
	return out, rows.Err()
}

// SaveCandidate upserts a candidate.
func (r *MeetingRepository) SaveCandidate(ctx context.Context, candidate *domain.MeetingCandidate) error {
	query := r.rebind(`
		INSERT INTO meeting_candidates (` + candidateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			assignee = excluded.assignee,
			due_at = excluded.due_at,
			effort_minutes = excluded.effort_minutes,
			confidence = excluded.confidence,
			rationale = excluded.rationale,
			source = excluded.source,
			status = excluded.status,
			task_id = excluded.task_id,
			updated_at = excluded.updated_at`)

	var taskID any
	if candidate.TaskID() != nil {
		taskID = candidate.TaskID().String()
	}

	_, err := r.executor(ctx).Exec(ctx, query,
		candidate.ID().String(),
		candidate.MeetingID().String(),
		candidate.Title(),
		candidate.Assignee(),
		database.FormatNullTime(candidate.DueAt()),
		candidate.EffortMinutes(),
		candidate.Confidence(),
		candidate.Rationale(),
		string(candidate.Source()),
		string(candidate.Status()),
		taskID,
		database.FormatTime(candidate.CreatedAt()),
		database.FormatTime(candidate.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save candidate: %w", err)
	}
	return nil
}

// FindCandidateByID loads one candidate.
func (r *MeetingRepository) FindCandidateByID(ctx context.Context, id uuid.UUID) (*domain.MeetingCandidate, error) {
	query := r.rebind(`SELECT ` + candidateColumns + ` FROM meeting_candidates WHERE id = ?`)
	candidate, err := scanCandidate(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return candidate, nil
}

// ListCandidates returns a meeting's candidates in extraction order.
func (r *MeetingRepository) ListCandidates(ctx context.Context, meetingID uuid.UUID) ([]*domain.MeetingCandidate, error) {
	query := r.rebind(`
		SELECT ` + candidateColumns + ` FROM meeting_candidates
		WHERE meeting_id = ? ORDER BY created_at`)
	rows, err := r.executor(ctx).Query(ctx, query, meetingID.String())
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*domain.MeetingCandidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, candidate)
	}
	return out, rows.Err()
}

func scanMeeting(row database.Row) (*domain.Meeting, error) {
	var (
		id, title, status    string
		rawText, transcript  string
		errMessage           string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &title, &status, &rawText, &transcript, &errMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	meetingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting id: %w", err)
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return domain.RehydrateMeeting(meetingID, title, domain.Status(status), rawText, transcript, errMessage, created, updated), nil
}

func scanCandidate(row database.Row) (*domain.MeetingCandidate, error) {
	var (
		id, meetingID        string
		title, assignee      string
		dueAt                *string
		effortMinutes        int
		confidence           float64
		rationale            string
		source, status       string
		taskID               *string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &meetingID, &title, &assignee, &dueAt, &effortMinutes,
		&confidence, &rationale, &source, &status, &taskID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	candidateID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid candidate id: %w", err)
	}
	meeting, err := uuid.Parse(meetingID)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting_id: %w", err)
	}
	due, err := database.ParseNullTime(dueAt)
	if err != nil {
		return nil, fmt.Errorf("invalid due_at: %w", err)
	}
	var task *uuid.UUID
	if taskID != nil && *taskID != "" {
		parsed, err := uuid.Parse(*taskID)
		if err != nil {
			return nil, fmt.Errorf("invalid task_id: %w", err)
		}
		task = &parsed
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return domain.RehydrateMeetingCandidate(
		candidateID, meeting,
		title, assignee,
		due,
		effortMinutes,
		confidence,
		rationale,
		domain.CandidateSource(source),
		domain.CandidateStatus(status),
		task,
		created, updated,
	), nil
}
