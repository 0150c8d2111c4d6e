package queries

import (
	"context"
	"fmt"
	"time"

	profiledomain "github.com/aawohq/aawo/internal/profile/domain"
	"github.com/aawohq/aawo/internal/scheduling/application/services"
	"github.com/aawohq/aawo/internal/scheduling/domain"
)

// FreeSlotsQuery asks for free intervals inside a horizon.
type FreeSlotsQuery struct {
	From time.Time
	To   time.Time
}

// FreeSlotsHandler resolves work windows, subtracts busy blocks and
// returns the remaining free intervals.
type FreeSlotsHandler struct {
	blocks   domain.BlockRepository
	profiles profiledomain.Repository
	finder   *services.FreeSlotFinder
}

// NewFreeSlotsHandler creates the handler.
func NewFreeSlotsHandler(blocks domain.BlockRepository, profiles profiledomain.Repository, finder *services.FreeSlotFinder) *FreeSlotsHandler {
	return &FreeSlotsHandler{blocks: blocks, profiles: profiles, finder: finder}
}

// Handle returns free slots within the horizon.
func (h *FreeSlotsHandler) Handle(ctx context.Context, q FreeSlotsQuery) ([]domain.Interval, error) {
	horizon, err := domain.NewInterval(q.From, q.To)
	if err != nil {
		return nil, err
	}

	profile, err := h.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	busyBlocks, err := h.blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("load busy blocks: %w", err)
	}

	windows := domain.ResolveWorkWindows(profile.WorkWindows, profile.Lunch, horizon, profile.Location())
	return h.finder.Find(windows, services.BusyIntervals(busyBlocks)), nil
}
