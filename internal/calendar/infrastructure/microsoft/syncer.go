package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aawohq/aawo/internal/calendar/domain"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/pkg/observability"
)

const eventsPath = "/me/events"

// msDateTime is the Graph date/time pair.
type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// msEvent is the Graph calendar event wire shape.
type msEvent struct {
	ID            string     `json:"id,omitempty"`
	Subject       string     `json:"subject"`
	Body          *msBody    `json:"body,omitempty"`
	Start         msDateTime `json:"start"`
	End           msDateTime `json:"end"`
	Categories    []string   `json:"categories,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
}

// Syncer mirrors local blocks into the user's Outlook calendar.
type Syncer struct {
	client  *Client
	logger  *slog.Logger
	metrics observability.Metrics
}

var _ domain.Mirror = (*Syncer)(nil)

// NewSyncer creates the Outlook mirror.
func NewSyncer(client *Client, logger *slog.Logger, metrics observability.Metrics) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Syncer{client: client, logger: logger, metrics: metrics}
}

// IsConnected reports whether the mirror can reach the provider.
func (s *Syncer) IsConnected(ctx context.Context) bool {
	return s.client.IsConnected(ctx)
}

// Mirror upserts the given blocks as Outlook events. Imported blocks
// are skipped since they already live remotely. Individual create or
// update failures do not abort the batch.
func (s *Syncer) Mirror(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) (*domain.MirrorResult, error) {
	timer := observability.StartTimer("calendar.mirror").WithMetrics(s.metrics)
	defer timer.Stop()

	result := &domain.MirrorResult{}
	for _, block := range blocks {
		if block.Source() == schedulingDomain.BlockSourceImport || !block.IsOccupying() {
			result.Skipped++
			continue
		}
		if block.ExternalID() != "" {
			if err := s.update(ctx, block); err != nil {
				if !IsNotFound(err) {
					s.logger.Warn("mirror update failed", "block_id", block.ID(), "error", err)
					result.Failed++
					continue
				}
				// Remote event vanished. Recreate it.
				block.ClearMirror()
				if err := s.create(ctx, block); err != nil {
					s.logger.Warn("mirror recreate failed", "block_id", block.ID(), "error", err)
					result.Failed++
					continue
				}
				result.Created++
				continue
			}
			result.Updated++
			continue
		}
		if err := s.create(ctx, block); err != nil {
			s.logger.Warn("mirror create failed", "block_id", block.ID(), "error", err)
			result.Failed++
			continue
		}
		result.Created++
	}
	s.metrics.Counter(observability.MetricMirrorCreates, int64(result.Created))
	return result, nil
}

// Delete removes the remote events for the given blocks. A remote 404
// counts as deleted. Blocks that were never mirrored have nothing
// remote to remove and are marked deleted locally; import-source
// blocks are skipped outright. Any other failure aborts so the caller
// does not drop local state while the remote copy survives.
func (s *Syncer) Delete(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) (*domain.DeleteResult, error) {
	timer := observability.StartTimer("calendar.delete").WithMetrics(s.metrics)
	defer timer.Stop()

	result := &domain.DeleteResult{}
	for _, block := range blocks {
		if block.Source() == schedulingDomain.BlockSourceImport {
			result.Skipped++
			continue
		}
		if block.ExternalID() == "" {
			block.MarkDeleted()
			result.Deleted++
			continue
		}
		err := s.client.Delete(ctx, eventsPath+"/"+block.ExternalID())
		if err != nil && !IsNotFound(err) {
			result.Failed++
			return result, fmt.Errorf("delete remote event for block %s: %w", block.ID(), err)
		}
		block.ClearMirror()
		block.MarkDeleted()
		result.Deleted++
	}
	s.metrics.Counter(observability.MetricMirrorDeletes, int64(result.Deleted))
	return result, nil
}

func (s *Syncer) create(ctx context.Context, block *schedulingDomain.CalendarBlock) error {
	payload, err := s.client.Post(ctx, eventsPath, s.eventFor(block, true))
	if err != nil {
		return err
	}
	var created msEvent
	if err := json.Unmarshal(payload, &created); err != nil {
		return fmt.Errorf("decode created event: %w", err)
	}
	if created.ID == "" {
		return fmt.Errorf("created event has no id")
	}
	block.MarkMirrored(domain.ProviderMicrosoft, created.ID)
	return nil
}

func (s *Syncer) update(ctx context.Context, block *schedulingDomain.CalendarBlock) error {
	_, err := s.client.Patch(ctx, eventsPath+"/"+block.ExternalID(), s.eventFor(block, false))
	if err != nil {
		return err
	}
	block.MarkMirrored(domain.ProviderMicrosoft, block.ExternalID())
	return nil
}

func (s *Syncer) eventFor(block *schedulingDomain.CalendarBlock, create bool) msEvent {
	iv := block.Interval()
	event := msEvent{
		Subject: block.Title(),
		Body: &msBody{
			ContentType: "text",
			Content:     fmt.Sprintf("aawo block %s", block.ID()),
		},
		Start: graphTime(iv.Start),
		End:   graphTime(iv.End),
	}
	if block.TaskID() != nil {
		event.Categories = []string{"AAWO"}
	}
	if create {
		event.TransactionID = "aawo-block-" + block.ID().String()
	}
	return event
}

func graphTime(t time.Time) msDateTime {
	return msDateTime{
		DateTime: t.UTC().Format("2006-01-02T15:04:05"),
		TimeZone: "UTC",
	}
}
