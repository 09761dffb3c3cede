package context

import (
	"context"
	"strings"

	"github.com/studybuddy/studybuddy/internal/session"
)

// Source selects what feeds the assembled study context.
type Source string

const (
	SourceDocuments Source = "documents"
	SourceChat      Source = "chat"
)

// Section headers let downstream consumers attribute provenance.
const (
	headerDocuments  = "--- STUDY DOCUMENTS ---"
	headerSummary    = "--- PREVIOUS CONVERSATION SUMMARY ---"
	headerRecent     = "--- RECENT MESSAGES ---"
	headerRawHistory = "--- SESSION CHAT HISTORY ---"
)

// Assembler composes the bounded study context (documents + compacted
// chat) consumed by generation calls. It performs no truncation; token
// capping is each caller's responsibility.
type Assembler struct {
	compactor *Compactor

	// summarizedLen is the history length at the last successful
	// summarization. While the history has not grown, the persisted
	// summary is reused instead of re-deriving it. Process-scoped: the
	// first assembly after a restart summarizes once even when a
	// summary was persisted.
	summarizedLen int
}

// NewAssembler creates an Assembler over the given compactor.
func NewAssembler(compactor *Compactor) *Assembler {
	return &Assembler{compactor: compactor}
}

// Assemble builds the context string from the selected sources.
// Returns "" when no selected source yields content, signalling
// "nothing to answer from". May update sess.ChatSummary when a new
// summary is computed; the caller persists the session as usual.
func (a *Assembler) Assemble(ctx context.Context, sources []Source, sess *session.Session) string {
	var sections []string

	if hasSource(sources, SourceDocuments) && sess.DocumentText != "" {
		sections = append(sections, headerDocuments+"\n"+sess.DocumentText)
	}

	if hasSource(sources, SourceChat) && len(sess.ChatHistory) > 0 {
		sections = append(sections, a.chatSection(ctx, sess))
	}

	return strings.Join(sections, "\n")
}

// chatSection renders the chat history, compacted when it is long
// enough and falling back to the full raw log when it is not (or when
// summarization fails).
func (a *Assembler) chatSection(ctx context.Context, sess *session.Session) string {
	history := sess.ChatHistory

	if len(history) <= a.compactor.Threshold() {
		return headerRawHistory + "\n" + renderMessages(history)
	}

	summary := ""
	tail := history
	if sess.ChatSummary != "" && a.summarizedLen == len(history) {
		// Cached summary still covers this history; skip the call.
		summary = sess.ChatSummary
		tail = history[len(history)-a.compactor.keepRecent:]
	} else {
		summary, tail = a.compactor.Compact(ctx, history)
		if summary != "" {
			sess.ChatSummary = summary
			a.summarizedLen = len(history)
		}
	}

	if summary == "" {
		// Compaction fell back; use the raw log so no turns are lost.
		return headerRawHistory + "\n" + renderMessages(history)
	}

	return headerSummary + "\n" + summary + "\n\n" +
		headerRecent + "\n" + renderMessages(tail)
}

func renderMessages(msgs []session.ChatMessage) string {
	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(strings.ToUpper(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func hasSource(sources []Source, want Source) bool {
	for _, s := range sources {
		if s == want {
			return true
		}
	}
	return false
}
