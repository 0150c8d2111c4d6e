package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/llm"
	"github.com/aawohq/aawo/internal/meetings/domain"
)

const maxTranscriptLines = 180

// LLMExtractor extracts action items with a JSON-mode model call.
type LLMExtractor struct {
	client   *llm.Client
	location *time.Location
}

// NewLLMExtractor creates the extractor.
func NewLLMExtractor(client *llm.Client, loc *time.Location) *LLMExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &LLMExtractor{client: client, location: loc}
}

// Available reports whether the model call will be attempted.
func (e *LLMExtractor) Available() bool {
	return e.client != nil && e.client.Enabled()
}

type extractedItem struct {
	Title         string  `json:"title"`
	AssigneeName  *string `json:"assignee_name"`
	Due           *string `json:"due"`
	EffortMinutes int     `json:"effort_minutes"`
	Confidence    float64 `json:"confidence"`
	Rationale     string  `json:"rationale"`
}

type extractionEnvelope struct {
	Items []extractedItem `json:"items"`
}

// Extract asks the model for action items and normalizes the answer.
func (e *LLMExtractor) Extract(ctx context.Context, utterances []domain.Utterance, base time.Time) ([]DraftItem, error) {
	if len(utterances) == 0 {
		return nil, nil
	}

	var lines []string
	for i, u := range utterances {
		if i >= maxTranscriptLines {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", u.Speaker, u.Text))
	}

	system := `You extract concrete meeting action items only.` +
		` Return strict JSON object only with shape:` +
		` {"items":[{"title":string,"assignee_name":string|null,"due":string|null,` +
		`"effort_minutes":int,"confidence":number,"rationale":string}]}.` +
		` Exclude vague ideas. Use null when unknown.` +
		` confidence must be between 0 and 1.` +
		` due should be ISO-8601 datetime if inferable, else null.`
	user := fmt.Sprintf("timezone=%s\nbase_datetime=%s\ntranscript:\n%s",
		e.location.String(), base.In(e.location).Format(time.RFC3339), strings.Join(lines, "\n"))

	var envelope extractionEnvelope
	err := e.client.CompleteJSON(ctx, llm.Request{
		Purpose: llm.PurposeMeetingExtraction,
		System:  system,
		User:    user,
	}, &envelope)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var items []DraftItem
	for _, item := range envelope.Items {
		title := strings.TrimSpace(item.Title)
		key := strings.ToLower(title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		effort := item.EffortMinutes
		if effort < 15 {
			effort = 60
		}
		if effort > 480 {
			effort = 480
		}
		conf := item.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}

		assignee := ""
		if item.AssigneeName != nil {
			assignee = strings.TrimSpace(*item.AssigneeName)
		}
		rationale := item.Rationale
		if rationale == "" {
			rationale = "LLM extraction"
		}

		items = append(items, DraftItem{
			Title:         title,
			Assignee:      assignee,
			DueAt:         e.parseDue(item.Due, base),
			EffortMinutes: effort,
			Confidence:    conf,
			Rationale:     rationale,
		})
	}
	return items, nil
}

// parseDue accepts ISO-8601 first and falls back to the rule
// extractor's date phrases.
func (e *LLMExtractor) parseDue(value *string, base time.Time) *time.Time {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, s, e.location); err == nil {
			due := parsed
			return &due
		}
	}
	return NewRuleExtractor(e.location).parseDue(s, base)
}
