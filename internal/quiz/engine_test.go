package quiz

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studybuddy/studybuddy/internal/adapter"
	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/db"
	"github.com/studybuddy/studybuddy/internal/session"
)

// scriptedGenerator pops one canned response per call, recording every
// prompt. An empty script means "fail every call".
type scriptedGenerator struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *scriptedGenerator) Generate(_ context.Context, req adapter.GenerateRequest) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("script exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedGenerator) Info() adapter.ModelInfo {
	return adapter.ModelInfo{Name: "stub", Provider: "stub", MaxContextWindow: 8192}
}

const mcqJSON = `{"question": "Capital of France?", "options": ["Paris", "London", "Rome", "Berlin"], "answer": "paris", "explanation": "Paris is the capital."}`
const mcqJSON2 = `{"question": "Capital of Italy?", "options": ["Paris", "London", "Rome", "Berlin"], "answer": "Rome", "explanation": "Rome is the capital."}`
const freeTextJSON = `{"question": "What is osmosis?", "answer": "Water movement across a membrane"}`

type engineFixture struct {
	engine *Engine
	store  *session.Store
	llm    *scriptedGenerator
	sess   *session.Session
}

func setupEngine(t *testing.T, format session.QuizFormat, llm *scriptedGenerator) *engineFixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := session.NewStore(database)
	tracker := session.NewTracker(store, "default")
	assembler := studyctx.NewAssembler(studyctx.NewCompactor(llm, 0, 0))

	sess := session.New()
	sess.DocumentText = "--- START OF DOCUMENT: geo.txt ---\nParis is the capital of France."

	engine := NewEngine(llm, assembler, nil, store, tracker, "default", Options{
		Format: format,
	})
	return &engineFixture{engine: engine, store: store, llm: llm, sess: sess}
}

func TestEngine_StartRequiresStudyContext(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{mcqJSON}}
	f := setupEngine(t, session.FormatMultipleChoice, llm)
	f.sess.DocumentText = ""

	_, err := f.engine.Start(context.Background(), f.sess)
	if !errors.Is(err, ErrNoStudyContext) {
		t.Fatalf("got %v, want ErrNoStudyContext", err)
	}
	if llm.calls != 0 {
		t.Errorf("expected no generation calls, got %d", llm.calls)
	}
	if f.engine.State() != NoActiveQuestion {
		t.Errorf("state: got %v, want NoActiveQuestion", f.engine.State())
	}
}

func TestEngine_StartPosesQuestionAndRepairsKey(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{responses: []string{mcqJSON}})

	item, err := f.engine.Start(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if item.Question != "Capital of France?" {
		t.Errorf("question: got %q", item.Question)
	}
	// The model's lowercase key must be repaired to the listed option.
	if item.Answer != "Paris" {
		t.Errorf("answer key: got %q, want %q", item.Answer, "Paris")
	}
	if f.engine.State() != AwaitingAnswer {
		t.Errorf("state: got %v, want AwaitingAnswer", f.engine.State())
	}
	if f.sess.Metrics.Calls != 1 {
		t.Errorf("metrics calls: got %d, want 1", f.sess.Metrics.Calls)
	}
}

func TestEngine_StartFailureLeavesStateUnchanged(t *testing.T) {
	llm := &scriptedGenerator{err: errors.New("model down")}
	f := setupEngine(t, session.FormatMultipleChoice, llm)

	if _, err := f.engine.Start(context.Background(), f.sess); err == nil {
		t.Fatal("expected error")
	}
	if f.engine.State() != NoActiveQuestion || f.engine.Current() != nil {
		t.Error("failed Start must not pose a question")
	}
}

func TestEngine_SubmitMultipleChoice(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{responses: []string{mcqJSON}})
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	// Case differences do not matter for option matching.
	res, err := f.engine.Submit(context.Background(), f.sess, "paris")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Correct {
		t.Error("expected correct answer")
	}
	if f.sess.Score != 1 {
		t.Errorf("score: got %d, want 1", f.sess.Score)
	}
	if f.engine.State() != Answered {
		t.Errorf("state: got %v, want Answered", f.engine.State())
	}

	// Score change must be durable.
	if got := f.store.Load("default").Score; got != 1 {
		t.Errorf("persisted score: got %d, want 1", got)
	}
}

func TestEngine_SubmitWrongChoiceLeavesScore(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{responses: []string{mcqJSON}})
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Submit(context.Background(), f.sess, "London")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Correct {
		t.Error("expected incorrect answer")
	}
	if res.CorrectAnswer != "Paris" {
		t.Errorf("correct answer: got %q", res.CorrectAnswer)
	}
	if f.sess.Score != 0 {
		t.Errorf("score: got %d, want 0", f.sess.Score)
	}
}

func TestEngine_SubmitFreeTextGraded(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{
		freeTextJSON,
		"IS_CORRECT: Yes | EXPLANATION: Matches the key.",
	}}
	f := setupEngine(t, session.FormatFreeText, llm)
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Submit(context.Background(), f.sess, "water moving through a membrane")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Correct {
		t.Error("expected grader verdict to count as correct")
	}
	if f.sess.Score != 1 {
		t.Errorf("score: got %d, want 1", f.sess.Score)
	}

	// Grader prompt carries the question, the student answer, and the key.
	prompt := llm.prompts[len(llm.prompts)-1]
	for _, want := range []string{"What is osmosis?", "water moving through a membrane", "Water movement across a membrane"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("grader prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestEngine_SubmitFreeTextFailsClosed(t *testing.T) {
	// Anything other than the exact marker is incorrect.
	for _, verdict := range []string{
		"IS_CORRECT: No | EXPLANATION: Wrong.",
		"Probably yes",
		"is_correct: yes",
	} {
		llm := &scriptedGenerator{responses: []string{freeTextJSON, verdict}}
		f := setupEngine(t, session.FormatFreeText, llm)
		if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
			t.Fatal(err)
		}
		res, err := f.engine.Submit(context.Background(), f.sess, "guess")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.Correct {
			t.Errorf("verdict %q must not count as correct", verdict)
		}
		if f.sess.Score != 0 {
			t.Errorf("score after %q: got %d, want 0", verdict, f.sess.Score)
		}
	}
}

func TestEngine_SubmitGraderFailureLeavesQuestionOpen(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{freeTextJSON}}
	f := setupEngine(t, session.FormatFreeText, llm)
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	// Script exhausted: the grading call fails.
	if _, err := f.engine.Submit(context.Background(), f.sess, "answer"); err == nil {
		t.Fatal("expected grading error")
	}
	if f.engine.State() != AwaitingAnswer {
		t.Errorf("state: got %v, want AwaitingAnswer", f.engine.State())
	}
	if f.sess.Score != 0 {
		t.Errorf("score: got %d, want 0", f.sess.Score)
	}
}

func TestEngine_SubmitWithoutQuestion(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{})
	if _, err := f.engine.Submit(context.Background(), f.sess, "x"); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("got %v, want ErrNoActiveQuestion", err)
	}
}

func TestEngine_SubmitTwiceRejected(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{responses: []string{mcqJSON}})
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Submit(context.Background(), f.sess, "Paris"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Submit(context.Background(), f.sess, "Paris"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("got %v, want ErrAlreadyAnswered", err)
	}
	if f.sess.Score != 1 {
		t.Errorf("score must not double-count: got %d", f.sess.Score)
	}
}

func TestEngine_HintCachedAcrossCalls(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{mcqJSON, "Think about European capitals."}}
	f := setupEngine(t, session.FormatMultipleChoice, llm)
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	first, err := f.engine.Hint(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("Hint: %v", err)
	}
	second, err := f.engine.Hint(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("second Hint: %v", err)
	}
	if first != second {
		t.Errorf("hint changed: %q vs %q", first, second)
	}
	if llm.calls != 2 { // one question, one hint
		t.Errorf("calls: got %d, want 2", llm.calls)
	}
}

func TestEngine_HintWithoutQuestion(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{})
	if _, err := f.engine.Hint(context.Background(), f.sess); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("got %v, want ErrNoActiveQuestion", err)
	}
}

func TestEngine_SkipArchivesAndPosesNext(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{mcqJSON, mcqJSON2}}
	f := setupEngine(t, session.FormatMultipleChoice, llm)
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}

	item, err := f.engine.Skip(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if item.Question == "Capital of France?" {
		t.Error("expected a fresh question after skip")
	}

	if len(f.sess.QuizHistory) != 1 {
		t.Fatalf("quiz history: got %d entries, want 1", len(f.sess.QuizHistory))
	}
	got := f.sess.QuizHistory[0]
	if got.UserAnswer != "Skipped" || got.Feedback != "Skipped by user" || got.Correct {
		t.Errorf("skip archive: got %+v", got)
	}

	// The archive is durable.
	if persisted := f.store.Load("default"); len(persisted.QuizHistory) != 1 {
		t.Errorf("persisted history: got %d entries", len(persisted.QuizHistory))
	}
}

func TestEngine_SkipWithoutQuestion(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{})
	if _, err := f.engine.Skip(context.Background(), f.sess); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("got %v, want ErrNoActiveQuestion", err)
	}
}

func TestEngine_NextArchivesOutcome(t *testing.T) {
	llm := &scriptedGenerator{responses: []string{mcqJSON, mcqJSON}}
	f := setupEngine(t, session.FormatMultipleChoice, llm)
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Submit(context.Background(), f.sess, "London"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.Next(context.Background(), f.sess); err != nil {
		t.Fatalf("Next: %v", err)
	}

	if len(f.sess.QuizHistory) != 1 {
		t.Fatalf("quiz history: got %d entries, want 1", len(f.sess.QuizHistory))
	}
	got := f.sess.QuizHistory[0]
	if got.UserAnswer != "London" || got.Correct {
		t.Errorf("archived attempt: got %+v", got)
	}
	if got.CorrectAnswer != "Paris" {
		t.Errorf("archived key: got %q", got.CorrectAnswer)
	}
}

func TestEngine_NextBeforeSubmitRejected(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{responses: []string{mcqJSON}})
	if _, err := f.engine.Start(context.Background(), f.sess); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Next(context.Background(), f.sess); !errors.Is(err, ErrNotAnswered) {
		t.Errorf("got %v, want ErrNotAnswered", err)
	}
}

func TestEngine_FeedbackRecorded(t *testing.T) {
	f := setupEngine(t, session.FormatMultipleChoice, &scriptedGenerator{})

	f.engine.Feedback(f.sess, true)
	f.engine.Feedback(f.sess, false)

	if f.sess.Metrics.PositiveFeedback != 1 || f.sess.Metrics.NegativeFeedback != 1 {
		t.Errorf("feedback tallies: got %+v", f.sess.Metrics)
	}
}
