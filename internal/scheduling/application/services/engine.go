package services

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/productivity/domain/task"
	"github.com/aawohq/aawo/internal/scheduling/domain"
)

const (
	// MaxBlockMinutes caps a single placement regardless of effort.
	MaxBlockMinutes = 120
	// FocusBlockThreshold: placements at or above this length become focus blocks.
	FocusBlockThreshold = 90
	// MinFocusEffort is the floor applied to effort under the focus strategy.
	MinFocusEffort = 30
)

// Placement is one scheduled task inside a generated plan.
type Placement struct {
	Task      *task.Task
	Interval  domain.Interval
	BlockType domain.BlockType
}

// PlanResult is the outcome of a scheduling run.
type PlanResult struct {
	Placements      []Placement
	Skipped         []*task.Task
	Objective       float64
	LatenessMinutes float64
	DeepWorkMinutes float64
}

// PlanInput carries everything a scheduling run needs.
type PlanInput struct {
	Tasks       []*task.Task
	FreeSlots   []domain.Interval
	DeepWork    []domain.WeightedWindow
	SlotMinutes int
	Strategy    domain.Strategy
	Now         time.Time
}

// Engine places candidate tasks into free calendar slots.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a scheduling engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Plan orders tasks per strategy and first-fits each into the lowest
// scoring free slot, shrinking slots as they fill. Tasks that fit
// nowhere are skipped, never truncated.
func (e *Engine) Plan(in PlanInput) PlanResult {
	slot := in.SlotMinutes
	if slot <= 0 {
		slot = 30
	}

	ordered := orderTasks(in.Tasks, in.Strategy)
	free := make([]domain.Interval, len(in.FreeSlots))
	copy(free, in.FreeSlots)

	var result PlanResult
	for _, tk := range ordered {
		required := requiredMinutes(tk, in.Strategy, slot)

		best := -1
		bestScore := math.Inf(1)
		for i, iv := range free {
			if iv.Minutes() < required {
				continue
			}
			score := scoreSlot(tk, iv, in)
			if score < bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 {
			result.Skipped = append(result.Skipped, tk)
			continue
		}

		placed := domain.Interval{
			Start: free[best].Start,
			End:   free[best].Start.Add(time.Duration(required) * time.Minute),
		}
		result.Placements = append(result.Placements, Placement{
			Task:      tk,
			Interval:  placed,
			BlockType: blockTypeFor(required),
		})

		// Shrink the consumed slot; drop it when exhausted.
		free[best].Start = placed.End
		if free[best].Minutes() <= 0 {
			free = append(free[:best], free[best+1:]...)
		}
	}

	result.LatenessMinutes = totalLateness(result.Placements)
	result.DeepWorkMinutes = totalDeepWork(result.Placements)
	result.Objective = objective(result.LatenessMinutes, len(result.Placements), result.DeepWorkMinutes)

	e.logger.Debug("scheduling run finished",
		"strategy", string(in.Strategy),
		"placed", len(result.Placements),
		"skipped", len(result.Skipped),
		"objective", result.Objective,
	)
	return result
}

// Summarize renders the user-facing summary and explanation for a plan.
func Summarize(result PlanResult, strategy domain.Strategy, loc *time.Location) (summary, explanation string) {
	summary = fmt.Sprintf("%d개 작업을 일정에 배치했습니다 (%s 전략)", len(result.Placements), strategy)

	var b strings.Builder
	for _, p := range result.Placements {
		start := p.Interval.Start.In(loc)
		end := p.Interval.End.In(loc)
		fmt.Fprintf(&b, "- %s: %s ~ %s\n", p.Task.Title(), start.Format("01/02 15:04"), end.Format("15:04"))
	}
	if len(result.Skipped) > 0 {
		titles := make([]string, 0, len(result.Skipped))
		for _, tk := range result.Skipped {
			titles = append(titles, tk.Title())
		}
		fmt.Fprintf(&b, "배치하지 못한 작업: %s\n", strings.Join(titles, ", "))
	}
	return summary, strings.TrimRight(b.String(), "\n")
}

// requiredMinutes rounds effort up to whole slots and caps the result.
func requiredMinutes(tk *task.Task, strategy domain.Strategy, slot int) int {
	effort := tk.EffortMinutes()
	if strategy == domain.StrategyFocus && effort < MinFocusEffort {
		effort = MinFocusEffort
	}
	required := int(math.Ceil(float64(effort)/float64(slot))) * slot
	if required < slot {
		required = slot
	}
	if required > MaxBlockMinutes {
		required = MaxBlockMinutes
	}
	return required
}

func blockTypeFor(required int) domain.BlockType {
	if required < FocusBlockThreshold {
		return domain.BlockTypeTask
	}
	return domain.BlockTypeFocus
}

// orderTasks sorts a copy of tasks by the strategy's ordering.
func orderTasks(tasks []*task.Task, strategy domain.Strategy) []*task.Task {
	ordered := make([]*task.Task, len(tasks))
	copy(ordered, tasks)

	switch strategy {
	case domain.StrategyUrgent:
		sort.SliceStable(ordered, func(i, j int) bool {
			di, dj := ordered[i].DueAtUTC(), ordered[j].DueAtUTC()
			if c := compareDue(di, dj); c != 0 {
				return c < 0
			}
			return ordered[i].Priority() < ordered[j].Priority()
		})
	case domain.StrategyFocus:
		sort.SliceStable(ordered, func(i, j int) bool {
			ei, ej := focusEffort(ordered[i]), focusEffort(ordered[j])
			if ei != ej {
				return ei > ej
			}
			if ordered[i].Priority() != ordered[j].Priority() {
				return ordered[i].Priority() < ordered[j].Priority()
			}
			return compareDue(ordered[i].DueAtUTC(), ordered[j].DueAtUTC()) < 0
		})
	default: // stable
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Priority() != ordered[j].Priority() {
				return ordered[i].Priority() < ordered[j].Priority()
			}
			return compareDue(ordered[i].DueAtUTC(), ordered[j].DueAtUTC()) < 0
		})
	}
	return ordered
}

func focusEffort(tk *task.Task) int {
	if tk.EffortMinutes() < MinFocusEffort {
		return MinFocusEffort
	}
	return tk.EffortMinutes()
}

// compareDue orders due dates ascending with nil last.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}

// scoreSlot scores placing a task at the head of a free interval;
// lower is better. The base is minutes from now so earlier slots win
// ties. Urgent penalizes the whole interval running past the due date,
// so a tight slot that ends in time beats an earlier one that does not.
// Focus rewards the interval's deep-work overlap.
func scoreSlot(tk *task.Task, iv domain.Interval, in PlanInput) float64 {
	base := iv.Start.Sub(in.Now).Minutes()

	switch in.Strategy {
	case domain.StrategyUrgent:
		return base + 5*latenessMinutes(tk, iv)
	case domain.StrategyFocus:
		bonus := 0.0
		for _, dw := range in.DeepWork {
			bonus += float64(iv.OverlapMinutes(dw.Interval)) * dw.Weight
		}
		return base - 60*bonus
	default:
		return base
	}
}

// latenessMinutes measures how far past due a placement ends.
func latenessMinutes(tk *task.Task, placed domain.Interval) float64 {
	due := tk.DueAtUTC()
	if due == nil {
		return 0
	}
	late := placed.End.UTC().Sub(*due).Minutes()
	if late < 0 {
		return 0
	}
	return late
}

func totalLateness(placements []Placement) float64 {
	total := 0.0
	for _, p := range placements {
		total += latenessMinutes(p.Task, p.Interval)
	}
	return total
}

// totalDeepWork counts minutes placed in long blocks. Any placement of
// ninety minutes or more counts as deep work, windows or not.
func totalDeepWork(placements []Placement) float64 {
	total := 0.0
	for _, p := range placements {
		if minutes := p.Interval.Minutes(); minutes >= FocusBlockThreshold {
			total += float64(minutes)
		}
	}
	return total
}

// objective scores a whole plan for reporting.
func objective(lateness float64, changes int, deepWork float64) float64 {
	score := 1000 - lateness - 10*float64(changes) + 0.5*deepWork
	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}
