package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newChatCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the tutor a question, or start an interactive chat",
		Long: `Chat with the tutor about your ingested material.

Answers are grounded in your documents and the running conversation,
and cite whether they came from the documents or general knowledge.

With a question argument, answers once and exits. Without one, starts
an interactive session (requires a terminal). Type "exit" to leave.

Examples:
  studybuddy chat "What is osmosis?"
  studybuddy chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(model)
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) > 0 {
				return askOnce(a, strings.Join(args, " "))
			}

			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("interactive chat needs a terminal; pass the question as an argument instead")
			}
			return chatLoop(a)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "LLM provider override: claude, openai, gemini, ollama")
	return cmd
}

func askOnce(a *app, question string) error {
	sess := a.store.Load(a.key)

	bar := spinner("  Thinking")
	answer, err := a.tutor.Answer(context.Background(), sess, question)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func chatLoop(a *app) error {
	sess := a.store.Load(a.key)
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("Chatting in session %q (%d earlier messages). Type \"exit\" to leave.\n\n", a.key, len(sess.ChatHistory))

	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		question := strings.TrimSpace(line)
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		bar := spinner("  Thinking")
		answer, err := a.tutor.Answer(context.Background(), sess, question)
		_ = bar.Finish()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\ntutor> %s\n\n", answer)
	}
}

// spinner returns an indeterminate progress spinner writing to stderr.
func spinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
