package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/quiz"
	"github.com/studybuddy/studybuddy/internal/session"
)

func newQuizCmd() *cobra.Command {
	var (
		model      string
		difficulty string
		format     string
		from       string
	)

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Start an interactive quiz on your study material",
		Long: `Run a quiz session against your ingested documents and chat history.

The professor poses questions, the tutor gives hints on request, and
free-text answers are graded against the answer key. Correct answers
raise your session score; every question is archived in the quiz
history.

Commands inside the session:
  <answer>   submit an answer (letter or full text for multiple choice)
  hint       get a hint for the current question
  skip       archive the question as skipped and get a new one
  next       archive the answered question and get a new one
  good, bad  rate the last feedback
  score      show the running score
  history    show past questions
  quit       leave the quiz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("quiz is interactive and needs a terminal")
			}

			a, err := newApp(model)
			if err != nil {
				return err
			}
			defer a.close()

			sources, err := quizSources(from)
			if err != nil {
				return err
			}

			opts := quiz.Options{
				Difficulty:     a.cfg.Quiz.Difficulty,
				Format:         session.QuizFormat(a.cfg.Quiz.Format),
				MatchThreshold: a.cfg.Quiz.MatchThreshold,
				Sources:        sources,
				QuizTokens:     a.cfg.Context.QuizTokenBudget,
				GradeTokens:    a.cfg.Context.GradeTokenBudget,
			}
			if difficulty != "" {
				opts.Difficulty = difficulty
			}
			if format != "" {
				opts.Format = session.QuizFormat(format)
			}

			engine := quiz.NewEngine(a.llm, a.assembler, a.tokenizer, a.store, a.tracker, a.key, opts)
			return quizLoop(a, engine)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "LLM provider override: claude, openai, gemini, ollama")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "question difficulty: easy, medium, hard")
	cmd.Flags().StringVarP(&format, "format", "f", "", "question format: multiple-choice, free-text")
	cmd.Flags().StringVar(&from, "from", "all", "question sources: documents, chat, all")

	return cmd
}

func quizSources(from string) ([]studyctx.Source, error) {
	switch from {
	case "documents":
		return []studyctx.Source{studyctx.SourceDocuments}, nil
	case "chat":
		return []studyctx.Source{studyctx.SourceChat}, nil
	case "all", "":
		return []studyctx.Source{studyctx.SourceDocuments, studyctx.SourceChat}, nil
	default:
		return nil, fmt.Errorf("invalid --from %q (valid: documents, chat, all)", from)
	}
}

func quizLoop(a *app, engine *quiz.Engine) error {
	sess := a.store.Load(a.key)
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	item, err := startQuestion(ctx, engine, sess)
	if err != nil {
		return err
	}
	printQuestion(item)

	for {
		fmt.Print("quiz> ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Printf("\nFinal score: %d\n", sess.Score)
			return nil
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "":
			continue

		case "quit", "exit":
			fmt.Printf("Final score: %d\n", sess.Score)
			return nil

		case "score":
			fmt.Printf("Score: %d (answered %d questions this and earlier sessions)\n",
				sess.Score, len(sess.QuizHistory))

		case "history":
			printHistory(sess)

		case "good", "bad":
			engine.Feedback(sess, strings.ToLower(input) == "good")
			fmt.Println("Feedback recorded.")

		case "hint":
			bar := spinner("  Consulting tutor")
			hint, hintErr := engine.Hint(ctx, sess)
			_ = bar.Finish()
			if hintErr != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", hintErr)
				continue
			}
			fmt.Printf("Hint: %s\n", hint)

		case "skip":
			next, skipErr := engine.Skip(ctx, sess)
			if skipErr != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", skipErr)
				continue
			}
			printQuestion(next)

		case "next":
			next, nextErr := engine.Next(ctx, sess)
			if nextErr != nil {
				if errors.Is(nextErr, quiz.ErrNotAnswered) {
					fmt.Println("Answer the current question first, or \"skip\" it.")
					continue
				}
				fmt.Fprintf(os.Stderr, "error: %v\n", nextErr)
				continue
			}
			printQuestion(next)

		default:
			if engine.State() == quiz.Answered {
				fmt.Println("Already answered. Type \"next\" for a new question.")
				continue
			}
			submitAnswer(ctx, engine, sess, input)
		}
	}
}

func startQuestion(ctx context.Context, engine *quiz.Engine, sess *session.Session) (*session.QuizItem, error) {
	bar := spinner("  Synthesizing question")
	item, err := engine.Start(ctx, sess)
	_ = bar.Finish()
	return item, err
}

func submitAnswer(ctx context.Context, engine *quiz.Engine, sess *session.Session, input string) {
	item := engine.Current()

	// Accept a bare option letter for multiple choice.
	if item.Format == session.FormatMultipleChoice && len(input) == 1 {
		idx := int(strings.ToLower(input)[0] - 'a')
		if idx >= 0 && idx < len(item.Options) {
			input = item.Options[idx]
		}
	}

	bar := spinner("  Grading")
	res, err := engine.Submit(ctx, sess, input)
	_ = bar.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	fmt.Println(res.Feedback)
	if !res.Correct {
		fmt.Printf("Correct answer: %s\n", res.CorrectAnswer)
	}
	if res.Explanation != "" {
		fmt.Printf("Explanation: %s\n", res.Explanation)
	}
	fmt.Printf("Score: %d. Rate with \"good\"/\"bad\", or type \"next\".\n", sess.Score)
}

func printQuestion(item *session.QuizItem) {
	fmt.Printf("\n%s\n", item.Question)
	for i, opt := range item.Options {
		fmt.Printf("  %c) %s\n", 'A'+i, opt)
	}
	fmt.Println()
}

func printHistory(sess *session.Session) {
	if len(sess.QuizHistory) == 0 {
		fmt.Println("No questions answered yet.")
		return
	}
	for i, att := range sess.QuizHistory {
		mark := "✗"
		if att.Correct {
			mark = "✓"
		}
		fmt.Printf("%2d. [%s] %s\n    your answer: %s\n", i+1, mark, att.Question, att.UserAnswer)
	}
}
