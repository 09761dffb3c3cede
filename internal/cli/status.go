package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/config"
	"github.com/studybuddy/studybuddy/internal/db"
	"github.com/studybuddy/studybuddy/internal/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session's score, material, and agent metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGlobal()
			if err != nil {
				return err
			}

			key := cfg.SessionKey
			if sessionKey != "" {
				key = sessionKey
			}
			if key == "" {
				key = "default"
			}

			dbPath, err := config.DBPath()
			if err != nil {
				return err
			}
			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			store := session.NewStore(database)
			sess := store.Load(key)

			correct := 0
			for _, att := range sess.QuizHistory {
				if att.Correct {
					correct++
				}
			}

			var dbSize int64
			if fi, err := os.Stat(dbPath); err == nil {
				dbSize = fi.Size()
			}

			fmt.Printf("\nSession:  %s\n", key)
			fmt.Printf("Score:    %d\n", sess.Score)
			fmt.Printf("Quiz:     %d question(s) archived, %d correct\n", len(sess.QuizHistory), correct)
			fmt.Printf("Chat:     %d message(s)", len(sess.ChatHistory))
			if sess.ChatSummary != "" {
				fmt.Printf(" (older turns summarized)")
			}
			fmt.Println()

			if sess.DocumentText != "" {
				fmt.Printf("Material: %d characters ingested\n", len(sess.DocumentText))
			} else {
				fmt.Printf("Material: none (run `studybuddy ingest <file>`)\n")
			}

			fmt.Printf("Agents:   %d call(s), avg %.2fs\n", sess.Metrics.Calls, sess.Metrics.AvgLatency)
			fmt.Printf("Feedback: %d positive, %d negative\n",
				sess.Metrics.PositiveFeedback, sess.Metrics.NegativeFeedback)
			fmt.Printf("Model:    %s (default)\n", cfg.DefaultModel)
			fmt.Printf("DB size:  %s\n", formatBytes(dbSize))

			if keys, err := store.ListKeys(); err == nil && len(keys) > 1 {
				fmt.Printf("Sessions: %d total", len(keys))
				fmt.Println()
			}
			fmt.Println()

			return nil
		},
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
