package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/aawohq/aawo/pkg/observability"
)

// ErrLLMUnavailable signals that no model in the chain produced a
// usable answer. Callers fall back to rule-based behavior.
var ErrLLMUnavailable = errors.New("llm unavailable")

// Purpose selects a model chain.
type Purpose string

const (
	PurposePlanning          Purpose = "planning"
	PurposeMeetingExtraction Purpose = "meeting_extraction"
	PurposeNLI               Purpose = "nli"
)

// Request is one JSON-mode chat completion.
type Request struct {
	Purpose     Purpose
	System      string
	User        string
	Temperature float64
}

// Config configures the client.
type Config struct {
	APIKey      string
	BaseURL     string
	Models      map[Purpose][]string
	CallTimeout time.Duration
	TotalBudget time.Duration
	Enabled     bool
}

// Client calls OpenAI-compatible chat completions in JSON mode with a
// per-purpose model fallback chain.
type Client struct {
	api         openai.Client
	models      map[Purpose][]string
	callTimeout time.Duration
	totalBudget time.Duration
	enabled     bool
	logger      *slog.Logger
	metrics     observability.Metrics
}

// NewClient creates a client. A disabled client fails fast with
// ErrLLMUnavailable.
func NewClient(cfg Config, logger *slog.Logger, metrics observability.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 12 * time.Second
	}
	if cfg.TotalBudget <= 0 {
		cfg.TotalBudget = 25 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:         openai.NewClient(opts...),
		models:      cfg.Models,
		callTimeout: cfg.CallTimeout,
		totalBudget: cfg.TotalBudget,
		enabled:     cfg.Enabled && cfg.APIKey != "",
		logger:      logger,
		metrics:     metrics,
	}
}

// Enabled reports whether calls will be attempted at all.
func (c *Client) Enabled() bool { return c.enabled }

// Complete walks the purpose's model chain and returns the first
// successful JSON answer.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.enabled {
		return "", ErrLLMUnavailable
	}
	chain := c.models[req.Purpose]
	if len(chain) == 0 {
		return "", fmt.Errorf("%w: no models configured for purpose %s", ErrLLMUnavailable, req.Purpose)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, c.totalBudget)
	defer cancel()

	var lastErr error
	for i, model := range chain {
		if budgetCtx.Err() != nil {
			break
		}
		if i > 0 {
			c.metrics.Counter(observability.MetricLLMFallbacks, 1, observability.T("purpose", string(req.Purpose)))
		}

		content, err := c.callModel(budgetCtx, model, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		c.logger.Warn("llm call failed",
			"purpose", string(req.Purpose),
			"model", model,
			"error", err,
		)
	}
	if lastErr == nil {
		lastErr = budgetCtx.Err()
	}
	return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, lastErr)
}

// CompleteJSON completes and decodes the answer into dst.
func (c *Client) CompleteJSON(ctx context.Context, req Request, dst any) error {
	content, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), dst); err != nil {
		return fmt.Errorf("%w: decode %s answer: %v", ErrLLMUnavailable, req.Purpose, err)
	}
	return nil
}

func (c *Client) callModel(ctx context.Context, model string, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	started := time.Now()
	content, err := c.doCall(callCtx, model, req, true)
	if err != nil && isTemperatureRejected(err) {
		// Some models only accept the default temperature.
		content, err = c.doCall(callCtx, model, req, false)
	}
	c.metrics.Counter(observability.MetricLLMCalls, 1,
		observability.T("purpose", string(req.Purpose)),
		observability.T("model", model),
		observability.T("ok", fmt.Sprintf("%t", err == nil)),
	)
	c.metrics.Timing("aawo.llm.call_duration", time.Since(started),
		observability.T("purpose", string(req.Purpose)),
	)
	return content, err
}

func (c *Client) doCall(ctx context.Context, model string, req Request, withTemperature bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if withTemperature {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty completion content")
	}
	return content, nil
}

func isTemperatureRejected(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 400 && strings.Contains(strings.ToLower(apiErr.Message), "temperature")
}

// stripCodeFence unwraps answers some models insist on fencing.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
