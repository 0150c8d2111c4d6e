package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/aawohq/aawo/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrBlockNotFound    = errors.New("calendar block not found")
	ErrBlockOverlap     = errors.New("calendar block overlaps an existing block")
	ErrBlockLocked      = errors.New("calendar block is locked")
	ErrBlockDeleted     = errors.New("calendar block is deleted")
	ErrBlockTitleNeeded = errors.New("calendar block title must not be empty")
)

// BlockType classifies what a calendar block holds.
type BlockType string

const (
	BlockTypeTask     BlockType = "task_block"
	BlockTypeFocus    BlockType = "focus_block"
	BlockTypeMeeting  BlockType = "meeting"
	BlockTypeExternal BlockType = "external"
)

// BlockStatus is the lifecycle state of a block.
type BlockStatus string

const (
	BlockStatusActive   BlockStatus = "active"
	BlockStatusMirrored BlockStatus = "mirrored"
	BlockStatusDeleted  BlockStatus = "deleted"
)

// BlockSource records what created a block.
type BlockSource string

const (
	BlockSourceUser      BlockSource = "user"
	BlockSourceScheduler BlockSource = "scheduler"
	BlockSourceImport    BlockSource = "import"
)

// CalendarBlock is a concrete occupied range on the calendar.
type CalendarBlock struct {
	sharedDomain.BaseEntity
	taskID           *uuid.UUID
	title            string
	interval         Interval
	blockType        BlockType
	status           BlockStatus
	locked           bool
	source           BlockSource
	externalProvider string
	externalID       string
}

// NewCalendarBlock creates an active block.
func NewCalendarBlock(title string, interval Interval, blockType BlockType, source BlockSource, taskID *uuid.UUID) (*CalendarBlock, error) {
	if title == "" {
		return nil, ErrBlockTitleNeeded
	}
	if !interval.End.After(interval.Start) {
		return nil, ErrInvalidInterval
	}
	return &CalendarBlock{
		BaseEntity: sharedDomain.NewBaseEntity(),
		taskID:     taskID,
		title:      title,
		interval:   interval,
		blockType:  blockType,
		status:     BlockStatusActive,
		source:     source,
	}, nil
}

// NewImportedBlock creates a locked external block from a remote calendar event.
func NewImportedBlock(title string, interval Interval, provider, externalID string) (*CalendarBlock, error) {
	block, err := NewCalendarBlock(title, interval, BlockTypeExternal, BlockSourceImport, nil)
	if err != nil {
		return nil, err
	}
	block.locked = true
	block.externalProvider = provider
	block.externalID = externalID
	return block, nil
}

func (b *CalendarBlock) TaskID() *uuid.UUID       { return b.taskID }
func (b *CalendarBlock) Title() string            { return b.title }
func (b *CalendarBlock) Interval() Interval       { return b.interval }
func (b *CalendarBlock) StartsAt() time.Time      { return b.interval.Start }
func (b *CalendarBlock) EndsAt() time.Time        { return b.interval.End }
func (b *CalendarBlock) Type() BlockType          { return b.blockType }
func (b *CalendarBlock) Status() BlockStatus      { return b.status }
func (b *CalendarBlock) Locked() bool             { return b.locked }
func (b *CalendarBlock) Source() BlockSource      { return b.source }
func (b *CalendarBlock) ExternalProvider() string { return b.externalProvider }
func (b *CalendarBlock) ExternalID() string       { return b.externalID }

// IsOccupying reports whether the block still blocks calendar time.
func (b *CalendarBlock) IsOccupying() bool {
	return b.status != BlockStatusDeleted
}

// Overlaps reports whether two blocks occupy a common instant.
func (b *CalendarBlock) Overlaps(other *CalendarBlock) bool {
	return b.interval.Overlaps(other.interval)
}

// MoveTo reschedules the block to a new interval.
func (b *CalendarBlock) MoveTo(interval Interval) error {
	if b.locked {
		return ErrBlockLocked
	}
	if b.status == BlockStatusDeleted {
		return ErrBlockDeleted
	}
	if !interval.End.After(interval.Start) {
		return ErrInvalidInterval
	}
	b.interval = interval
	b.Touch()
	return nil
}

// UpdateFromProvider resyncs an imported block with its remote copy.
// Only import-source blocks may bypass the lock.
func (b *CalendarBlock) UpdateFromProvider(title string, interval Interval) error {
	if b.source != BlockSourceImport {
		return ErrBlockLocked
	}
	if !interval.End.After(interval.Start) {
		return ErrInvalidInterval
	}
	if title != "" {
		b.title = title
	}
	b.interval = interval
	b.status = BlockStatusMirrored
	b.Touch()
	return nil
}

// MarkMirrored records the remote copy created for this block.
func (b *CalendarBlock) MarkMirrored(provider, externalID string) {
	b.status = BlockStatusMirrored
	b.externalProvider = provider
	b.externalID = externalID
	b.Touch()
}

// MarkDeleted soft-deletes the block.
func (b *CalendarBlock) MarkDeleted() {
	b.status = BlockStatusDeleted
	b.Touch()
}

// ClearMirror reverts the block to active after its remote copy is gone.
func (b *CalendarBlock) ClearMirror() {
	b.status = BlockStatusActive
	b.externalProvider = ""
	b.externalID = ""
	b.Touch()
}

// DetachTask drops the task link, leaving the block in place.
func (b *CalendarBlock) DetachTask() {
	b.taskID = nil
	b.Touch()
}

// ReparentTask points the block at a different task.
func (b *CalendarBlock) ReparentTask(taskID uuid.UUID) {
	id := taskID
	b.taskID = &id
	b.Touch()
}

// Retitle renames the block.
func (b *CalendarBlock) Retitle(title string) error {
	if title == "" {
		return ErrBlockTitleNeeded
	}
	b.title = title
	b.Touch()
	return nil
}

// RehydrateCalendarBlock recreates a block from persisted state.
func RehydrateCalendarBlock(
	id uuid.UUID,
	taskID *uuid.UUID,
	title string,
	interval Interval,
	blockType BlockType,
	status BlockStatus,
	locked bool,
	source BlockSource,
	externalProvider, externalID string,
	createdAt, updatedAt time.Time,
) *CalendarBlock {
	return &CalendarBlock{
		BaseEntity:       sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		taskID:           taskID,
		title:            title,
		interval:         interval,
		blockType:        blockType,
		status:           status,
		locked:           locked,
		source:           source,
		externalProvider: externalProvider,
		externalID:       externalID,
	}
}
