package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// historyWindow bounds how many recent turns the planner sees.
const historyWindow = 8

const historyKey = "aawo:assistant:history"

const lastTaskKey = "aawo:assistant:last_task"

const historyTTL = 24 * time.Hour

// Turn is one chat exchange entry.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
	// TaskTitle remembers the task a turn acted on, for "그거" style
	// follow-ups.
	TaskTitle string `json:"task_title,omitempty"`
}

// History stores recent chat turns in Redis when available, falling
// back to process memory otherwise.
type History struct {
	client *redis.Client
	logger *slog.Logger

	mu       sync.Mutex
	local    []Turn
	lastTask string
}

// NewHistory creates the history store. Client may be nil.
func NewHistory(client *redis.Client, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{client: client, logger: logger}
}

// Append records a turn.
func (h *History) Append(ctx context.Context, turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}

	if h.client != nil {
		data, err := json.Marshal(turn)
		if err == nil {
			pipe := h.client.TxPipeline()
			pipe.RPush(ctx, historyKey, data)
			pipe.LTrim(ctx, historyKey, -int64(historyWindow*2), -1)
			pipe.Expire(ctx, historyKey, historyTTL)
			if _, err := pipe.Exec(ctx); err == nil {
				return
			}
			h.logger.Warn("redis history write failed, using memory", "error", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.local = append(h.local, turn)
	if len(h.local) > historyWindow*2 {
		h.local = h.local[len(h.local)-historyWindow*2:]
	}
}

// Recent returns up to historyWindow most recent turns, oldest first.
func (h *History) Recent(ctx context.Context) []Turn {
	if h.client != nil {
		raw, err := h.client.LRange(ctx, historyKey, -int64(historyWindow), -1).Result()
		if err == nil {
			turns := make([]Turn, 0, len(raw))
			for _, item := range raw {
				var turn Turn
				if err := json.Unmarshal([]byte(item), &turn); err == nil {
					turns = append(turns, turn)
				}
			}
			return turns
		}
		h.logger.Warn("redis history read failed, using memory", "error", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	start := len(h.local) - historyWindow
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(h.local)-start)
	copy(out, h.local[start:])
	return out
}

// RememberTask records the task a turn acted on for "그거" style
// follow-ups.
func (h *History) RememberTask(ctx context.Context, title string) {
	if title == "" {
		return
	}
	if h.client != nil {
		if err := h.client.Set(ctx, lastTaskKey, title, historyTTL).Err(); err == nil {
			return
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTask = title
}

// LastTaskTitle returns the most recently referenced task title.
func (h *History) LastTaskTitle(ctx context.Context) string {
	if h.client != nil {
		if title, err := h.client.Get(ctx, lastTaskKey).Result(); err == nil {
			return title
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastTask != "" {
		return h.lastTask
	}
	for i := len(h.local) - 1; i >= 0; i-- {
		if h.local[i].TaskTitle != "" {
			return h.local[i].TaskTitle
		}
	}
	return ""
}
