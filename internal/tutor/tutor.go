// Package tutor answers free-form study questions against the ingested
// documents and the running conversation.
package tutor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/studybuddy/studybuddy/internal/adapter"
	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/session"
)

const answerPrompt = `KNOWLEDGE BASE: %s
USER QUESTION: %s
TASK: Answer based on KNOWLEDGE BASE. Cite "[Source: Documents]" when the answer comes from the knowledge base, or "[Source: AI]" when it comes from general knowledge.`

// Tutor answers questions grounded in the study context, recording each
// exchange in the durable chat history.
type Tutor struct {
	llm       adapter.Generator
	assembler *studyctx.Assembler
	tokenizer *studyctx.Tokenizer
	store     *session.Store
	tracker   *session.Tracker
	key       string
	budget    int
}

// New creates a Tutor over the given session key. budget caps the
// assembled context in tokens; non-positive means 24000.
func New(llm adapter.Generator, assembler *studyctx.Assembler, tokenizer *studyctx.Tokenizer, store *session.Store, tracker *session.Tracker, key string, budget int) *Tutor {
	if budget <= 0 {
		budget = 24000
	}
	return &Tutor{
		llm:       llm,
		assembler: assembler,
		tokenizer: tokenizer,
		store:     store,
		tracker:   tracker,
		key:       key,
		budget:    budget,
	}
}

// Answer responds to question using documents plus compacted chat as
// grounding, appends both turns to the chat history, and persists the
// session. A generation failure leaves the history untouched.
func (t *Tutor) Answer(ctx context.Context, sess *session.Session, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	knowledge := t.assembler.Assemble(ctx, []studyctx.Source{studyctx.SourceDocuments, studyctx.SourceChat}, sess)
	if knowledge == "" {
		knowledge = "No documents uploaded."
	} else if t.tokenizer != nil {
		knowledge = t.tokenizer.Truncate(knowledge, t.budget)
	}

	start := time.Now()
	answer, err := t.llm.Generate(ctx, adapter.GenerateRequest{
		Prompt:      fmt.Sprintf(answerPrompt, knowledge, question),
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	answer = strings.TrimSpace(answer)
	t.tracker.RecordCall(sess, "qa", time.Since(start))

	sess.ChatHistory = append(sess.ChatHistory,
		session.ChatMessage{Role: session.RoleUser, Content: question},
		session.ChatMessage{Role: session.RoleAssistant, Content: answer},
	)
	// A failed save costs durability, not the answer.
	if err := t.store.Save(t.key, sess); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", err)
	}
	return answer, nil
}
