package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

const calendarViewTop = 80

type msEventPage struct {
	Value []msEvent `json:"value"`
}

// TodoList is one remote To Do list.
type TodoList struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type msTodoTask struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Body        *msBody     `json:"body,omitempty"`
	DueDateTime *msDateTime `json:"dueDateTime,omitempty"`
}

// ImportSummary reports what an import pulled in.
type ImportSummary struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// Importer pulls remote Outlook events and To Do tasks into local
// storage.
type Importer struct {
	client *Client
	blocks schedulingDomain.BlockRepository
	tasks  task.Repository
	logger *slog.Logger
}

// NewImporter creates the importer.
func NewImporter(client *Client, blocks schedulingDomain.BlockRepository, tasks task.Repository, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{client: client, blocks: blocks, tasks: tasks, logger: logger}
}

// ImportCalendar upserts remote calendar events in the window as
// locked external blocks, keyed by their Graph event id.
func (i *Importer) ImportCalendar(ctx context.Context, start, end time.Time) (*ImportSummary, error) {
	query := url.Values{}
	query.Set("startDateTime", start.UTC().Format(time.RFC3339))
	query.Set("endDateTime", end.UTC().Format(time.RFC3339))
	query.Set("$top", strconv.Itoa(calendarViewTop))
	query.Set("$orderby", "start/dateTime")

	payload, err := i.client.Get(ctx, "/me/calendar/calendarView", query)
	if err != nil {
		return nil, fmt.Errorf("list calendar view: %w", err)
	}
	var page msEventPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("decode calendar view: %w", err)
	}

	summary := &ImportSummary{Total: len(page.Value)}
	for _, event := range page.Value {
		if event.ID == "" {
			continue
		}
		eventStart, okStart := parseGraphTime(event.Start)
		eventEnd, okEnd := parseGraphTime(event.End)
		if !okStart || !okEnd || !eventEnd.After(eventStart) {
			continue
		}
		interval := schedulingDomain.Interval{Start: eventStart, End: eventEnd}
		title := event.Subject
		if title == "" {
			title = "Outlook Event"
		}

		existing, err := i.blocks.FindByExternalID(ctx, domain.ProviderMicrosoft, event.ID)
		switch {
		case errors.Is(err, schedulingDomain.ErrBlockNotFound):
			block, buildErr := schedulingDomain.NewImportedBlock(title, interval, domain.ProviderMicrosoft, event.ID)
			if buildErr != nil {
				i.logger.Warn("skipping unimportable event", "event_id", event.ID, "error", buildErr)
				continue
			}
			if err := i.blocks.Save(ctx, block); err != nil {
				return nil, fmt.Errorf("save imported block: %w", err)
			}
			summary.Imported++
		case err != nil:
			return nil, fmt.Errorf("lookup imported block: %w", err)
		default:
			if err := existing.UpdateFromProvider(title, interval); err != nil {
				i.logger.Warn("skipping remote event update", "event_id", event.ID, "error", err)
				continue
			}
			if err := i.blocks.Save(ctx, existing); err != nil {
				return nil, fmt.Errorf("save imported block: %w", err)
			}
			summary.Imported++
		}
	}
	return summary, nil
}

// ListTodoLists returns the user's To Do lists.
func (i *Importer) ListTodoLists(ctx context.Context) ([]TodoList, error) {
	payload, err := i.client.Get(ctx, "/me/todo/lists", nil)
	if err != nil {
		return nil, fmt.Errorf("list todo lists: %w", err)
	}
	var page struct {
		Value []TodoList `json:"value"`
	}
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("decode todo lists: %w", err)
	}
	return page.Value, nil
}

// ImportTodo pulls the tasks of one To Do list as import-source
// tasks. Existing import tasks are matched by title to avoid
// duplicates across runs.
func (i *Importer) ImportTodo(ctx context.Context, listID string) (*ImportSummary, error) {
	payload, err := i.client.Get(ctx, "/me/todo/lists/"+listID+"/tasks", nil)
	if err != nil {
		return nil, fmt.Errorf("list todo tasks: %w", err)
	}
	var page struct {
		Value []msTodoTask `json:"value"`
	}
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("decode todo tasks: %w", err)
	}

	existing, err := i.tasks.List(ctx, task.Filter{IncludeNoDue: true})
	if err != nil {
		return nil, fmt.Errorf("list local tasks: %w", err)
	}
	seen := make(map[string]*task.Task, len(existing))
	for _, t := range existing {
		if t.Source() == task.SourceImport {
			seen[t.Title()] = t
		}
	}

	summary := &ImportSummary{Total: len(page.Value)}
	for _, item := range page.Value {
		if item.ID == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Microsoft To Do Task"
		}

		var due *time.Time
		if item.DueDateTime != nil {
			if parsed, ok := parseGraphTime(*item.DueDateTime); ok {
				due = &parsed
			}
		}

		if local, ok := seen[title]; ok {
			if item.Body != nil && item.Body.Content != "" {
				local.SetDescription(item.Body.Content)
			}
			local.SetDueAt(due)
			if err := i.tasks.Save(ctx, local); err != nil {
				return nil, fmt.Errorf("save imported task: %w", err)
			}
			summary.Imported++
			continue
		}

		created, buildErr := task.NewTask(title, task.SourceImport)
		if buildErr != nil {
			i.logger.Warn("skipping unimportable todo task", "todo_id", item.ID, "error", buildErr)
			continue
		}
		if item.Body != nil {
			created.SetDescription(item.Body.Content)
		}
		created.SetDueAt(due)
		if err := i.tasks.Save(ctx, created); err != nil {
			return nil, fmt.Errorf("save imported task: %w", err)
		}
		seen[title] = created
		summary.Imported++
	}
	return summary, nil
}

func parseGraphTime(dt msDateTime) (time.Time, bool) {
	if dt.DateTime == "" {
		return time.Time{}, false
	}
	loc := time.UTC
	if dt.TimeZone != "" && dt.TimeZone != "UTC" {
		if parsed, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = parsed
		}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.9999999",
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if t, err := time.ParseInLocation(layout, dt.DateTime, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
