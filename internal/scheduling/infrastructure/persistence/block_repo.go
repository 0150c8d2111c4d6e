package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// BlockRepository persists calendar blocks.
type BlockRepository struct {
	conn database.Connection
}

// NewBlockRepository creates the repository.
func NewBlockRepository(conn database.Connection) *BlockRepository {
	return &BlockRepository{conn: conn}
}

var _ domain.BlockRepository = (*BlockRepository)(nil)

const blockColumns = `id, task_id, title, starts_at, ends_at, block_type, status,
	locked, source, external_provider, external_id, created_at, updated_at`

func (r *BlockRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *BlockRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts a block.
func (r *BlockRepository) Save(ctx context.Context, block *domain.CalendarBlock) error {
	query := r.rebind(`
		INSERT INTO calendar_blocks (` + blockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			task_id = excluded.task_id,
			title = excluded.title,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			block_type = excluded.block_type,
			status = excluded.status,
			locked = excluded.locked,
			source = excluded.source,
			external_provider = excluded.external_provider,
			external_id = excluded.external_id,
			updated_at = excluded.updated_at`)

	var taskID any
	if block.TaskID() != nil {
		taskID = block.TaskID().String()
	}

	_, err := r.executor(ctx).Exec(ctx, query,
		block.ID().String(),
		taskID,
		block.Title(),
		database.FormatTime(block.Interval().Start),
		database.FormatTime(block.Interval().End),
		string(block.Type()),
		string(block.Status()),
		block.Locked(),
		string(block.Source()),
		block.ExternalProvider(),
		block.ExternalID(),
		database.FormatTime(block.CreatedAt()),
		database.FormatTime(block.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save block: %w", err)
	}
	return nil
}

// FindByID loads one block.
func (r *BlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarBlock, error) {
	query := r.rebind(`SELECT ` + blockColumns + ` FROM calendar_blocks WHERE id = ?`)
	block, err := scanBlock(r.executor(ctx).QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrBlockNotFound
		}
		return nil, fmt.Errorf("find block: %w", err)
	}
	return block, nil
}

// FindOccupying returns non-deleted blocks overlapping the interval,
// ordered by start.
func (r *BlockRepository) FindOccupying(ctx context.Context, interval domain.Interval) ([]*domain.CalendarBlock, error) {
	query := r.rebind(`
		SELECT ` + blockColumns + ` FROM calendar_blocks
		WHERE status != ? AND starts_at < ? AND ends_at > ?
		ORDER BY starts_at`)
	rows, err := r.executor(ctx).Query(ctx, query,
		string(domain.BlockStatusDeleted),
		database.FormatTime(interval.End),
		database.FormatTime(interval.Start),
	)
	if err != nil {
		return nil, fmt.Errorf("find occupying blocks: %w", err)
	}
	return collectBlocks(rows)
}

// FindByTaskID returns non-deleted blocks linked to the task.
func (r *BlockRepository) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.CalendarBlock, error) {
	query := r.rebind(`
		SELECT ` + blockColumns + ` FROM calendar_blocks
		WHERE task_id = ? AND status != ?
		ORDER BY starts_at`)
	rows, err := r.executor(ctx).Query(ctx, query, taskID.String(), string(domain.BlockStatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("find blocks by task: %w", err)
	}
	return collectBlocks(rows)
}

// FindByExternalID resolves a block by its remote event identity.
func (r *BlockRepository) FindByExternalID(ctx context.Context, provider, externalID string) (*domain.CalendarBlock, error) {
	query := r.rebind(`
		SELECT ` + blockColumns + ` FROM calendar_blocks
		WHERE external_provider = ? AND external_id = ?`)
	block, err := scanBlock(r.executor(ctx).QueryRow(ctx, query, provider, externalID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrBlockNotFound
		}
		return nil, fmt.Errorf("find block by external id: %w", err)
	}
	return block, nil
}

// List returns blocks, optionally restricted to an interval.
func (r *BlockRepository) List(ctx context.Context, interval *domain.Interval, includeDeleted bool) ([]*domain.CalendarBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM calendar_blocks`
	var (
		conditions []string
		args       []any
	)
	if !includeDeleted {
		conditions = append(conditions, "status != ?")
		args = append(args, string(domain.BlockStatusDeleted))
	}
	if interval != nil {
		conditions = append(conditions, "starts_at < ?", "ends_at > ?")
		args = append(args, database.FormatTime(interval.End), database.FormatTime(interval.Start))
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY starts_at"

	rows, err := r.executor(ctx).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return collectBlocks(rows)
}

func scanBlock(row database.Row) (*domain.CalendarBlock, error) {
	var (
		id                   string
		taskID               *string
		title                string
		startsAt, endsAt     string
		blockType, status    string
		locked               bool
		source               string
		provider, externalID string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &taskID, &title, &startsAt, &endsAt, &blockType, &status,
		&locked, &source, &provider, &externalID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	blockID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid block id: %w", err)
	}
	var task *uuid.UUID
	if taskID != nil && *taskID != "" {
		parsed, err := uuid.Parse(*taskID)
		if err != nil {
			return nil, fmt.Errorf("invalid task_id: %w", err)
		}
		task = &parsed
	}
	start, err := database.ParseTime(startsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at: %w", err)
	}
	end, err := database.ParseTime(endsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid ends_at: %w", err)
	}
	created, err := database.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	return domain.RehydrateCalendarBlock(
		blockID,
		task,
		title,
		domain.Interval{Start: start, End: end},
		domain.BlockType(blockType),
		domain.BlockStatus(status),
		locked,
		domain.BlockSource(source),
		provider, externalID,
		created, updated,
	), nil
}

func collectBlocks(rows database.Rows) ([]*domain.CalendarBlock, error) {
	defer rows.Close()
	var out []*domain.CalendarBlock
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
