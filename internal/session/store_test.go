package session

import (
	"path/filepath"
	"testing"

	"github.com/studybuddy/studybuddy/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestStore_LoadMissingReturnsDefaults(t *testing.T) {
	store := setupTestStore(t)

	sess := store.Load("default")
	if sess.Score != 0 {
		t.Errorf("score: got %d, want 0", sess.Score)
	}
	if sess.ChatHistory == nil || len(sess.ChatHistory) != 0 {
		t.Errorf("chat history: got %v, want empty slice", sess.ChatHistory)
	}
	if sess.QuizHistory == nil || len(sess.QuizHistory) != 0 {
		t.Errorf("quiz history: got %v, want empty slice", sess.QuizHistory)
	}
	if sess.DocumentText != "" || sess.ChatSummary != "" {
		t.Error("expected empty document text and summary")
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	sess := &Session{
		Score: 3,
		ChatHistory: []ChatMessage{
			{Role: RoleUser, Content: "What is osmosis?"},
			{Role: RoleAssistant, Content: "Movement of water across a membrane."},
		},
		QuizHistory: []QuizAttempt{
			{
				Question:      "Capital of France?",
				UserAnswer:    "Paris",
				CorrectAnswer: "Paris",
				Feedback:      "Correct!",
				Correct:       true,
				Explanation:   "Paris is the capital.",
			},
		},
		DocumentText: "--- START OF DOCUMENT: bio.pdf ---\ncell membranes...",
		Metrics: Metrics{
			Calls:            7,
			AvgLatency:       1.25,
			PositiveFeedback: 2,
			NegativeFeedback: 1,
		},
		ChatSummary: "Covered osmosis and diffusion.",
	}

	if err := store.Save("default", sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := store.Load("default")
	if got.Score != 3 {
		t.Errorf("score: got %d, want 3", got.Score)
	}
	if len(got.ChatHistory) != 2 || got.ChatHistory[1].Content != "Movement of water across a membrane." {
		t.Errorf("chat history: got %+v", got.ChatHistory)
	}
	if len(got.QuizHistory) != 1 {
		t.Fatalf("quiz history: got %d attempts, want 1", len(got.QuizHistory))
	}
	if !got.QuizHistory[0].Correct || got.QuizHistory[0].UserAnswer != "Paris" {
		t.Errorf("quiz attempt: got %+v", got.QuizHistory[0])
	}
	if got.DocumentText != sess.DocumentText {
		t.Errorf("document text: got %q", got.DocumentText)
	}
	if got.Metrics != sess.Metrics {
		t.Errorf("metrics: got %+v, want %+v", got.Metrics, sess.Metrics)
	}
	if got.ChatSummary != "Covered osmosis and diffusion." {
		t.Errorf("chat summary: got %q", got.ChatSummary)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := setupTestStore(t)

	store.Save("default", &Session{Score: 1})
	store.Save("default", &Session{Score: 2})

	got := store.Load("default")
	if got.Score != 2 {
		t.Errorf("score: got %d, want 2", got.Score)
	}
}

func TestStore_MalformedStateFallsBack(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.db.Conn().Exec(
		`INSERT INTO sessions (key, state) VALUES (?, ?)`, "default", "{not json",
	)
	if err != nil {
		t.Fatal(err)
	}

	sess := store.Load("default")
	if sess.Score != 0 || len(sess.ChatHistory) != 0 {
		t.Errorf("expected default session, got %+v", sess)
	}
}

func TestStore_PartialStateDefaultsMissingFields(t *testing.T) {
	store := setupTestStore(t)

	// A record written by an older version may omit fields entirely.
	_, err := store.db.Conn().Exec(
		`INSERT INTO sessions (key, state) VALUES (?, ?)`, "default", `{"score": 5}`,
	)
	if err != nil {
		t.Fatal(err)
	}

	sess := store.Load("default")
	if sess.Score != 5 {
		t.Errorf("score: got %d, want 5", sess.Score)
	}
	if sess.ChatHistory == nil || sess.QuizHistory == nil {
		t.Error("expected non-nil history slices for partial record")
	}
	if sess.Metrics.Calls != 0 {
		t.Errorf("metrics calls: got %d, want 0", sess.Metrics.Calls)
	}
}

func TestStore_KeysAreIsolated(t *testing.T) {
	store := setupTestStore(t)

	store.Save("alice", &Session{Score: 10})
	store.Save("bob", &Session{Score: 20})

	if got := store.Load("alice").Score; got != 10 {
		t.Errorf("alice score: got %d, want 10", got)
	}
	if got := store.Load("bob").Score; got != 20 {
		t.Errorf("bob score: got %d, want 20", got)
	}

	keys, err := store.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %v", keys)
	}
}

func TestStore_ResetClearsAndPersists(t *testing.T) {
	store := setupTestStore(t)

	store.Save("default", &Session{
		Score:        4,
		ChatHistory:  []ChatMessage{{Role: RoleUser, Content: "hi"}},
		QuizHistory:  []QuizAttempt{{Question: "q"}},
		DocumentText: "docs",
		ChatSummary:  "summary",
		Metrics:      Metrics{Calls: 3, AvgLatency: 1.0},
	})

	if _, err := store.Reset("default"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// A fresh load must observe the reset values.
	got := store.Load("default")
	if got.Score != 0 {
		t.Errorf("score: got %d, want 0", got.Score)
	}
	if len(got.ChatHistory) != 0 || len(got.QuizHistory) != 0 {
		t.Error("expected empty histories after reset")
	}
	if got.DocumentText != "" || got.ChatSummary != "" {
		t.Error("expected empty documents and summary after reset")
	}
	if got.Metrics.Calls != 0 {
		t.Errorf("metrics calls: got %d, want 0", got.Metrics.Calls)
	}
}
