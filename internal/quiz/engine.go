package quiz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/studybuddy/studybuddy/internal/adapter"
	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/session"
)

// State is the engine's position in the question lifecycle.
type State int

const (
	// NoActiveQuestion: nothing asked yet, or the last question was
	// archived.
	NoActiveQuestion State = iota
	// AwaitingAnswer: a question is posed and unanswered.
	AwaitingAnswer
	// Answered: the current question was graded; feedback is available.
	Answered
)

var (
	// ErrNoStudyContext means neither documents nor chat history can
	// seed a question.
	ErrNoStudyContext = errors.New("no study material available: ingest a document or chat first")
	// ErrNoActiveQuestion is returned by operations that need a posed
	// question when there is none.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrAlreadyAnswered is returned by Submit after the current
	// question was graded.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned by Next before the current question
	// was graded.
	ErrNotAnswered = errors.New("current question not answered yet")
)

// Options configures an Engine.
type Options struct {
	Difficulty     string
	Format         session.QuizFormat
	MatchThreshold float64
	Sources        []studyctx.Source
	QuizTokens     int
	GradeTokens    int
}

// SubmitResult is what the caller shows the user after grading.
type SubmitResult struct {
	Correct       bool
	Feedback      string
	CorrectAnswer string
	Explanation   string
}

// Engine runs the quiz question lifecycle: pose, hint, grade, archive.
// It owns the transient question state; everything durable goes through
// the session store.
type Engine struct {
	llm       adapter.Generator
	assembler *studyctx.Assembler
	tokenizer *studyctx.Tokenizer
	store     *session.Store
	tracker   *session.Tracker
	key       string
	opts      Options

	state      State
	current    *session.QuizItem
	hint       string
	lastAnswer string
	lastResult *SubmitResult
}

// NewEngine creates an Engine over the given session key.
func NewEngine(llm adapter.Generator, assembler *studyctx.Assembler, tokenizer *studyctx.Tokenizer, store *session.Store, tracker *session.Tracker, key string, opts Options) *Engine {
	if opts.Difficulty == "" {
		opts.Difficulty = "medium"
	}
	if opts.Format == "" {
		opts.Format = session.FormatMultipleChoice
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = 0.8
	}
	if len(opts.Sources) == 0 {
		opts.Sources = []studyctx.Source{studyctx.SourceDocuments, studyctx.SourceChat}
	}
	if opts.QuizTokens <= 0 {
		opts.QuizTokens = 12000
	}
	if opts.GradeTokens <= 0 {
		opts.GradeTokens = 5000
	}
	return &Engine{
		llm:       llm,
		assembler: assembler,
		tokenizer: tokenizer,
		store:     store,
		tracker:   tracker,
		key:       key,
		opts:      opts,
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Current returns the posed question, or nil.
func (e *Engine) Current() *session.QuizItem {
	return e.current
}

// LastResult returns the grading result of the current question, or nil
// before Submit.
func (e *Engine) LastResult() *SubmitResult {
	return e.lastResult
}

// Start poses a new question from the study context. Requires study
// material; fails before any generation call when there is none. On a
// generation or parse failure the engine state is unchanged.
func (e *Engine) Start(ctx context.Context, sess *session.Session) (*session.QuizItem, error) {
	studyContext := e.assembler.Assemble(ctx, e.opts.Sources, sess)
	if studyContext == "" {
		return nil, ErrNoStudyContext
	}
	studyContext = e.capTokens(studyContext, e.opts.QuizTokens)

	var prompt string
	if e.opts.Format == session.FormatMultipleChoice {
		prompt = fmt.Sprintf(multipleChoiceQuestionPrompt, studyContext, e.opts.Difficulty)
	} else {
		prompt = fmt.Sprintf(freeTextQuestionPrompt, studyContext, e.opts.Difficulty)
	}

	start := time.Now()
	raw, err := e.llm.Generate(ctx, adapter.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	item, err := parseQuestionJSON(raw, e.opts.Format, e.opts.MatchThreshold)
	if err != nil {
		return nil, err
	}
	e.tracker.RecordCall(sess, "professor", time.Since(start))

	e.current = item
	e.state = AwaitingAnswer
	e.hint = ""
	e.lastAnswer = ""
	e.lastResult = nil
	return item, nil
}

// Hint returns a hint for the current question. Repeated calls return
// the same hint without another generation call.
func (e *Engine) Hint(ctx context.Context, sess *session.Session) (string, error) {
	if e.current == nil {
		return "", ErrNoActiveQuestion
	}
	if e.hint != "" {
		return e.hint, nil
	}

	studyContext := e.capTokens(e.assembler.Assemble(ctx, e.opts.Sources, sess), e.opts.QuizTokens)

	start := time.Now()
	hint, err := e.llm.Generate(ctx, adapter.GenerateRequest{
		Prompt:      fmt.Sprintf(hintPrompt, studyContext, e.current.Question),
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("generate hint: %w", err)
	}
	e.tracker.RecordCall(sess, "tutor", time.Since(start))

	e.hint = strings.TrimSpace(hint)
	return e.hint, nil
}

// Submit grades the user's answer. Multiple-choice answers are compared
// to the repaired key ignoring case; free-text answers go to the
// grader, which must answer "IS_CORRECT: Yes" for credit. A grader
// failure leaves the question unanswered.
func (e *Engine) Submit(ctx context.Context, sess *session.Session, answer string) (*SubmitResult, error) {
	if e.current == nil {
		return nil, ErrNoActiveQuestion
	}
	if e.state == Answered {
		return nil, ErrAlreadyAnswered
	}

	answer = strings.TrimSpace(answer)
	result := &SubmitResult{
		CorrectAnswer: e.current.Answer,
		Explanation:   e.current.Explanation,
	}

	if e.current.Format == session.FormatMultipleChoice {
		result.Correct = answer != "" && strings.EqualFold(answer, e.current.Answer)
		if result.Correct {
			result.Feedback = "Correct!"
		} else {
			result.Feedback = "Incorrect."
		}
	} else {
		studyContext := e.capTokens(e.assembler.Assemble(ctx, e.opts.Sources, sess), e.opts.GradeTokens)
		start := time.Now()
		resp, err := e.llm.Generate(ctx, adapter.GenerateRequest{
			Prompt:      fmt.Sprintf(gradePrompt, e.current.Question, answer, e.current.Answer, studyContext),
			MaxTokens:   512,
			Temperature: 0.2,
		})
		if err != nil {
			return nil, fmt.Errorf("grade answer: %w", err)
		}
		e.tracker.RecordCall(sess, "grader", time.Since(start))
		result.Correct = strings.Contains(resp, "IS_CORRECT: Yes")
		result.Feedback = strings.TrimSpace(resp)
	}

	if result.Correct {
		sess.Score++
	}
	e.lastAnswer = answer
	e.lastResult = result
	e.state = Answered
	e.save(sess)
	return result, nil
}

// Skip archives the current question as skipped and poses a new one.
func (e *Engine) Skip(ctx context.Context, sess *session.Session) (*session.QuizItem, error) {
	if e.current == nil {
		return nil, ErrNoActiveQuestion
	}
	e.archive(sess, "Skipped", "Skipped by user", false)
	e.clear()
	return e.Start(ctx, sess)
}

// Next archives the answered question with its real outcome and poses
// a new one.
func (e *Engine) Next(ctx context.Context, sess *session.Session) (*session.QuizItem, error) {
	if e.current == nil {
		return nil, ErrNoActiveQuestion
	}
	if e.state != Answered {
		return nil, ErrNotAnswered
	}
	answer := e.lastAnswer
	if answer == "" {
		answer = "No Answer"
	}
	e.archive(sess, answer, e.lastResult.Feedback, e.lastResult.Correct)
	e.clear()
	return e.Start(ctx, sess)
}

// Feedback records a thumbs up or down on the latest interaction.
func (e *Engine) Feedback(sess *session.Session, positive bool) {
	e.tracker.RecordFeedback(sess, positive)
}

// archive appends the current question to the durable quiz history and
// persists the session.
func (e *Engine) archive(sess *session.Session, userAnswer, feedback string, correct bool) {
	sess.QuizHistory = append(sess.QuizHistory, session.QuizAttempt{
		Question:      e.current.Question,
		UserAnswer:    userAnswer,
		CorrectAnswer: e.current.Answer,
		Feedback:      feedback,
		Correct:       correct,
		Explanation:   e.current.Explanation,
	})
	e.save(sess)
}

func (e *Engine) clear() {
	e.current = nil
	e.state = NoActiveQuestion
	e.hint = ""
	e.lastAnswer = ""
	e.lastResult = nil
}

func (e *Engine) capTokens(s string, budget int) string {
	if e.tokenizer == nil {
		return s
	}
	return e.tokenizer.Truncate(s, budget)
}

func (e *Engine) save(sess *session.Session) {
	if err := e.store.Save(e.key, sess); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", err)
	}
}
