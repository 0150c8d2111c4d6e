package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/projects/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// ProjectRepository persists projects. The name column carries a unique
// constraint; violations surface as ErrDuplicateName.
type ProjectRepository struct {
	conn database.Connection
}

// NewProjectRepository creates the repository.
func NewProjectRepository(conn database.Connection) *ProjectRepository {
	return &ProjectRepository{conn: conn}
}

var _ domain.Repository = (*ProjectRepository)(nil)

const projectColumns = `id, name, description, color, created_at, updated_at`

func (r *ProjectRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *ProjectRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts a project.
func (r *ProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	query := r.rebind(`
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			color = excluded.color,
			updated_at = excluded.updated_at`)

	_, err := r.executor(ctx).Exec(ctx, query,
		project.ID().String(),
		project.Name(),
		project.Description(),
		project.Color(),
		database.FormatTime(project.CreatedAt()),
		database.FormatTime(project.UpdatedAt()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// FindByID loads one project.
func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := r.rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	project, err := scanProject(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

// FindByName resolves a project by its exact name.
func (r *ProjectRepository) FindByName(ctx context.Context, name string) (*domain.Project, error) {
	query := r.rebind(`SELECT ` + projectColumns + ` FROM projects WHERE name = ?`)
	project, err := scanProject(r.executor(ctx).QueryRow(ctx, query, name))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find project by name: %w", err)
	}
	return project, nil
}

// List returns all projects ordered by name.
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	query := r.rebind(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
	rows, err := r.executor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.rebind(`DELETE FROM projects WHERE id = ?`)
	result, err := r.executor(ctx).Exec(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches the unique constraint message of both
// drivers: sqlite reports "UNIQUE constraint failed", postgres
// "duplicate key value violates unique constraint".
func isUniqueViolation(err error) bool {
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "duplicate key value")
}

func scanProject(row database.Row) (*domain.Project, error) {
	var (
		id, name             string
		description, color   string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &name, &description, &color, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return domain.RehydrateProject(projectID, name, description, color, created, updated), nil
}
