package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ActorUser marks changes the user made directly through the API.
const ActorUser = "user"

// ActorAssistant marks changes the chat assistant made.
const ActorAssistant = "assistant"

// ActorSystem marks background changes (subscribers, importers).
const ActorSystem = "system"

// Entry is one append-only audit record.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Repository persists audit entries.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder writes audit entries, swallowing storage errors so audit
// never blocks the mutation it describes.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder creates the recorder. Repo may be nil, which disables
// auditing.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one entry. Payload values that fail to marshal are
// dropped, not fatal.
func (r *Recorder) Record(ctx context.Context, actor, action, entity, entityID string, payload any) {
	if r == nil || r.repo == nil {
		return
	}
	entry := Entry{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			entry.Payload = data
		}
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		r.logger.Warn("audit append failed", "action", action, "error", err)
	}
}
