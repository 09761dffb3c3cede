package context

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/studybuddy/studybuddy/internal/adapter"
	"github.com/studybuddy/studybuddy/internal/session"
)

// Compaction defaults: histories at or below the threshold are passed
// through untouched; above it, everything but the most recent messages
// is summarized.
const (
	DefaultCompactThreshold = 5
	DefaultKeepRecent       = 3
)

const summaryPrompt = `Summarize the following conversation history into a concise paragraph.
Focus on the key topics studied and the user's learning gaps.

CONVERSATION:
%s`

// Compactor converts an unbounded chat log into a bounded context by
// summarizing older turns through a single generation call.
type Compactor struct {
	llm        adapter.Generator
	threshold  int
	keepRecent int
}

// NewCompactor creates a Compactor. Non-positive threshold or
// keepRecent fall back to the defaults.
func NewCompactor(llm adapter.Generator, threshold, keepRecent int) *Compactor {
	if threshold <= 0 {
		threshold = DefaultCompactThreshold
	}
	if keepRecent <= 0 {
		keepRecent = DefaultKeepRecent
	}
	return &Compactor{llm: llm, threshold: threshold, keepRecent: keepRecent}
}

// Threshold returns the message count above which compaction applies.
func (c *Compactor) Threshold() int {
	return c.threshold
}

// Compact summarizes all but the most recent messages of history.
// Histories at or below the threshold return ("", history) unchanged.
// On a summarization failure it fails soft: ("", history), so the
// caller falls back to the full raw history instead of losing turns.
func (c *Compactor) Compact(ctx context.Context, history []session.ChatMessage) (string, []session.ChatMessage) {
	if len(history) <= c.threshold {
		return "", history
	}

	older := history[:len(history)-c.keepRecent]
	recent := history[len(history)-c.keepRecent:]

	var lines []string
	for _, msg := range older {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}

	summary, err := c.llm.Generate(ctx, adapter.GenerateRequest{
		Prompt:      fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n")),
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "compactor: summarization failed: %v (using raw history)\n", err)
		return "", history
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", history
	}
	return summary, recent
}
