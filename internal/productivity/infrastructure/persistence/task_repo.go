package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// TaskRepository persists tasks with plain SQL. Queries are written
// with `?` placeholders and rebound per driver.
type TaskRepository struct {
	conn database.Connection
}

// NewTaskRepository creates the repository.
func NewTaskRepository(conn database.Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

var _ task.Repository = (*TaskRepository)(nil)

const taskColumns = `id, title, description, status, priority, effort_minutes,
	due_at, project_id, assignee, source, version, created_at, updated_at`

func (r *TaskRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *TaskRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts a task.
func (r *TaskRepository) Save(ctx context.Context, t *task.Task) error {
	query := r.rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			effort_minutes = excluded.effort_minutes,
			due_at = excluded.due_at,
			project_id = excluded.project_id,
			assignee = excluded.assignee,
			source = excluded.source,
			version = excluded.version,
			updated_at = excluded.updated_at`)

	var projectID any
	if t.ProjectID() != nil {
		projectID = t.ProjectID().String()
	}

	_, err := r.executor(ctx).Exec(ctx, query,
		t.ID().String(),
		t.Title(),
		t.Description(),
		string(t.Status()),
		int(t.Priority()),
		t.EffortMinutes(),
		database.FormatNullTime(t.DueAtUTC()),
		projectID,
		t.Assignee(),
		string(t.Source()),
		t.Version(),
		database.FormatTime(t.CreatedAt()),
		database.FormatTime(t.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// FindByID loads one task.
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := r.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	row := r.executor(ctx).QueryRow(ctx, query, id.String())
	t, err := scanTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

// FindByIDs loads the tasks whose IDs are listed. Unknown IDs are
// silently absent from the result.
func (r *TaskRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*task.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	query := r.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY created_at`)

	rows, err := r.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return collectTasks(rows)
}

// List returns tasks matching the filter, newest first.
func (r *TaskRepository) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	var (
		conditions []string
		args       []any
	)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID.String())
	}
	if filter.DueBefore != nil {
		due := "due_at IS NOT NULL AND due_at <= ?"
		if filter.IncludeNoDue {
			due = "(due_at IS NULL OR due_at <= ?)"
		}
		conditions = append(conditions, due)
		args = append(args, database.FormatTime(*filter.DueBefore))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.rebind(`DELETE FROM tasks WHERE id = ?`)
	result, err := r.executor(ctx).Exec(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanTask(row database.Row) (*task.Task, error) {
	var (
		id, title, description, status string
		priority, effortMinutes        int
		dueAt, projectID               *string
		assignee, source               string
		version                        int
		createdAt, updatedAt           string
	)
	err := row.Scan(&id, &title, &description, &status, &priority, &effortMinutes,
		&dueAt, &projectID, &assignee, &source, &version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid task id: %w", err)
	}
	due, err := database.ParseNullTime(dueAt)
	if err != nil {
		return nil, fmt.Errorf("invalid due_at: %w", err)
	}
	var project *uuid.UUID
	if projectID != nil && *projectID != "" {
		parsed, err := uuid.Parse(*projectID)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id: %w", err)
		}
		project = &parsed
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return task.RehydrateTask(
		taskID,
		title, description,
		task.Status(status),
		task.Priority(priority),
		effortMinutes,
		due,
		project,
		assignee,
		task.Source(source),
		version,
		created, updated,
	), nil
}

func collectTasks(rows database.Rows) ([]*task.Task, error) {
	defer rows.Close()
	var out []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
