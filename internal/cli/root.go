// Package cli defines the Cobra command tree for the studybuddy CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// sessionKey is the --session override, applied before the config value.
var sessionKey string

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "AI study assistant: chat over your documents and quiz yourself on them",
	Long: `Studybuddy turns your study material into an interactive tutor.

Ingest PDFs or notes, chat about them with source citations, and run
quiz sessions where an AI professor poses questions, a tutor offers
hints, and a grader scores your free-text answers. Everything is saved
per session, so your score and conversation survive restarts.

Run 'studybuddy setup' once, then 'studybuddy ingest notes.pdf' to begin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sessionKey, "session", "s", "", "session key (default from config, else \"default\")")

	rootCmd.AddCommand(
		newChatCmd(),
		newQuizCmd(),
		newIngestCmd(),
		newStatusCmd(),
		newClearCmd(),
		newWatchCmd(),
		newSetupCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("studybuddy %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
