package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/config"
	"github.com/studybuddy/studybuddy/internal/db"
	"github.com/studybuddy/studybuddy/internal/session"
)

func newClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset the session: score, histories, and study material",
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

			if !force {
				fmt.Printf("This permanently clears session %q: score, chat, quiz history, and documents.\n", key)
				fmt.Print("Type 'yes' to confirm: ")
				reader := bufio.NewReader(os.Stdin)
				line, _ := reader.ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
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
			if _, err := store.Reset(key); err != nil {
				return fmt.Errorf("reset session: %w", err)
			}

			fmt.Printf("Session %q cleared.\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}
