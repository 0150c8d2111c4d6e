package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	profiledomain "github.com/aawohq/aawo/internal/profile/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	"github.com/aawohq/aawo/internal/scheduling/application/services"
	"github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/application"
)

// DefaultHorizonDays bounds proposal generation when no horizon is given.
const DefaultHorizonDays = 2

// CandidateDueSlackDays widens the due-date cutoff past the horizon end.
const CandidateDueSlackDays = 7

// GenerateProposalCommand asks the scheduler for a draft plan.
type GenerateProposalCommand struct {
	HorizonStart time.Time
	HorizonEnd   time.Time
	Strategy     string
	// TaskIDs restricts scheduling to specific tasks. Empty means all
	// schedulable candidates.
	TaskIDs []uuid.UUID
}

// GenerateProposalHandler runs the scheduling pipeline and persists the
// resulting draft proposal.
type GenerateProposalHandler struct {
	tasks     task.Repository
	blocks    domain.BlockRepository
	proposals domain.ProposalRepository
	profiles  profiledomain.Repository
	engine    *services.Engine
	finder    *services.FreeSlotFinder
	uow       application.UnitOfWork
	logger    *slog.Logger
}

// NewGenerateProposalHandler creates the handler.
func NewGenerateProposalHandler(
	tasks task.Repository,
	blocks domain.BlockRepository,
	proposals domain.ProposalRepository,
	profiles profiledomain.Repository,
	engine *services.Engine,
	finder *services.FreeSlotFinder,
	uow application.UnitOfWork,
	logger *slog.Logger,
) *GenerateProposalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateProposalHandler{
		tasks:     tasks,
		blocks:    blocks,
		proposals: proposals,
		profiles:  profiles,
		engine:    engine,
		finder:    finder,
		uow:       uow,
		logger:    logger,
	}
}

// Handle generates and saves a draft proposal.
func (h *GenerateProposalHandler) Handle(ctx context.Context, cmd GenerateProposalCommand) (*domain.SchedulingProposal, error) {
	strategy, err := domain.ParseStrategy(cmd.Strategy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	horizon, err := normalizeHorizon(cmd.HorizonStart, cmd.HorizonEnd, now)
	if err != nil {
		return nil, err
	}

	profile, err := h.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	loc := profile.Location()

	candidates, err := h.collectCandidates(ctx, cmd.TaskIDs, horizon)
	if err != nil {
		return nil, err
	}

	busyBlocks, err := h.blocks.FindOccupying(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("load busy blocks: %w", err)
	}

	windows := domain.ResolveWorkWindows(profile.WorkWindows, profile.Lunch, horizon, loc)
	free := h.finder.Find(windows, services.BusyIntervals(busyBlocks))
	deepWork := domain.ResolveDeepWork(profile.DeepWork, horizon, loc)

	result := h.engine.Plan(services.PlanInput{
		Tasks:       candidates,
		FreeSlots:   free,
		DeepWork:    deepWork,
		SlotMinutes: profile.SlotMinutes,
		Strategy:    strategy,
		Now:         now,
	})

	summary, explanation := services.Summarize(result, strategy, loc)
	proposal := domain.NewSchedulingProposal(strategy, horizon, result.Objective, summary, explanation)
	for _, p := range result.Placements {
		taskID := p.Task.ID()
		proposal.AddChange(&taskID, domain.CreateBlockPayload{
			Title:     p.Task.Title(),
			StartsAt:  p.Interval.Start,
			EndsAt:    p.Interval.End,
			BlockType: p.BlockType,
		})
	}

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.proposals.Save(txCtx, proposal)
	})
	if err != nil {
		return nil, fmt.Errorf("save proposal: %w", err)
	}

	h.logger.Info("proposal generated",
		"proposal_id", proposal.ID(),
		"strategy", string(strategy),
		"placed", len(result.Placements),
		"skipped", len(result.Skipped),
	)
	return proposal, nil
}

// collectCandidates loads either the requested tasks or every
// non-terminal task due before the widened horizon (or with no due).
func (h *GenerateProposalHandler) collectCandidates(ctx context.Context, ids []uuid.UUID, horizon domain.Interval) ([]*task.Task, error) {
	if len(ids) > 0 {
		tasks, err := h.tasks.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		var schedulable []*task.Task
		for _, tk := range tasks {
			if !tk.Status().IsTerminal() {
				schedulable = append(schedulable, tk)
			}
		}
		return schedulable, nil
	}

	cutoff := horizon.End.AddDate(0, 0, CandidateDueSlackDays)
	return h.tasks.List(ctx, task.Filter{
		Statuses:     []task.Status{task.StatusTodo, task.StatusInProgress, task.StatusBlocked},
		DueBefore:    &cutoff,
		IncludeNoDue: true,
	})
}

func normalizeHorizon(start, end time.Time, now time.Time) (domain.Interval, error) {
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, DefaultHorizonDays)
	}
	return domain.NewInterval(start, end)
}
