// Package session defines the durable study-session state and its
// keyed SQLite-backed store.
package session

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single conversation turn. Immutable once appended.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QuizFormat distinguishes free-text questions from multiple-choice ones.
type QuizFormat string

const (
	FormatFreeText       QuizFormat = "free-text"
	FormatMultipleChoice QuizFormat = "multiple-choice"
)

// QuizItem is the currently active question. At most one is active at a
// time; it is transient state owned by the quiz engine, not persisted.
type QuizItem struct {
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Options     []string   `json:"options,omitempty"` // present only for multiple-choice
	Explanation string     `json:"explanation,omitempty"`
	Format      QuizFormat `json:"format"`
}

// QuizAttempt is the archival record of a resolved question (answered
// or skipped). Appended to the session's quiz history, never mutated.
type QuizAttempt struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Feedback      string `json:"feedback"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

// Metrics tracks generation-call counts, the running average latency in
// seconds, and user feedback tallies.
type Metrics struct {
	Calls            int     `json:"calls"`
	AvgLatency       float64 `json:"avg_latency"`
	PositiveFeedback int     `json:"positive_feedback"`
	NegativeFeedback int     `json:"negative_feedback"`
}

// Session is the unit of persisted state. The JSON field names are the
// on-disk record format; absent fields default on load.
type Session struct {
	Score        int           `json:"score"`
	ChatHistory  []ChatMessage `json:"chat_history"`
	QuizHistory  []QuizAttempt `json:"quiz_history"`
	DocumentText string        `json:"rag_docs"`
	Metrics      Metrics       `json:"agent_metrics"`
	ChatSummary  string        `json:"chat_summary"`
}

// New returns a Session with default (empty) state.
func New() *Session {
	return &Session{
		ChatHistory: []ChatMessage{},
		QuizHistory: []QuizAttempt{},
	}
}

// normalize replaces nil collections with empty ones so that a loaded
// session always has every field present.
func (s *Session) normalize() {
	if s.ChatHistory == nil {
		s.ChatHistory = []ChatMessage{}
	}
	if s.QuizHistory == nil {
		s.QuizHistory = []QuizAttempt{}
	}
}
