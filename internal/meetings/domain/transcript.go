package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSpeaker names utterances in notes without speaker prefixes.
const DefaultSpeaker = "참석자"

// Utterance is one transcript line with a synthetic timestamp.
type Utterance struct {
	Timestamp time.Duration
	Speaker   string
	Text      string
}

// BuildTranscript normalizes a raw note into transcript lines. Lines
// shaped "speaker: text" keep their speaker; everything else gets the
// default speaker. Timestamps are synthesized at 20s per line.
func BuildTranscript(rawText string) []Utterance {
	var utterances []Utterance
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		speaker := DefaultSpeaker
		text := line
		if idx := strings.Index(line, ":"); idx > 0 {
			name := strings.TrimSpace(line[:idx])
			rest := strings.TrimSpace(line[idx+1:])
			if rest != "" && isSpeakerName(name) {
				speaker = name
				text = rest
			}
		}
		utterances = append(utterances, Utterance{
			Timestamp: time.Duration(len(utterances)) * 20 * time.Second,
			Speaker:   speaker,
			Text:      text,
		})
	}
	return utterances
}

// FormatTranscript renders utterances as "[mm:ss] speaker: text" lines.
func FormatTranscript(utterances []Utterance) string {
	var b strings.Builder
	for i, u := range utterances {
		if i > 0 {
			b.WriteByte('\n')
		}
		total := int(u.Timestamp.Seconds())
		fmt.Fprintf(&b, "[%02d:%02d] %s: %s", total/60, total%60, u.Speaker, u.Text)
	}
	return b.String()
}

// isSpeakerName filters out colon-containing lines that are not
// speaker prefixes, like times ("14:00") or URLs.
func isSpeakerName(name string) bool {
	if name == "" || len([]rune(name)) > 20 {
		return false
	}
	for _, r := range name {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return !strings.ContainsAny(name, "/.")
}
