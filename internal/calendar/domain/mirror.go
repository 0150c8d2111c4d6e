package domain

import (
	"context"

	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

// MirrorResult reports what a mirror push did.
type MirrorResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// DeleteResult reports what a remote delete did.
type DeleteResult struct {
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Mirror pushes local calendar blocks to the remote provider. Create
// failures are non-fatal; delete failures abort the caller's operation.
type Mirror interface {
	IsConnected(ctx context.Context) bool
	Mirror(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) (*MirrorResult, error)
	Delete(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) (*DeleteResult, error)
}
