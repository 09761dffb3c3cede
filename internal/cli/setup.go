package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time configuration",
		Long:  "Configure the LLM provider, API key, and quiz defaults for studybuddy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Welcome to studybuddy! Let's configure your study assistant.")
			fmt.Println()

			cfg := config.DefaultGlobal()

			// Step 1: Choose LLM provider.
			fmt.Println("Which LLM do you want to study with?")
			fmt.Println("  [1] Gemini (Google)")
			fmt.Println("  [2] Claude (Anthropic)")
			fmt.Println("  [3] OpenAI (GPT-4o)")
			fmt.Println("  [4] Ollama (local)")
			fmt.Print("> ")

			choice := readLineBuf(reader)
			switch strings.TrimSpace(choice) {
			case "1", "":
				cfg.DefaultModel = "gemini"
				fmt.Print("Enter your Gemini API key (or press Enter to set GEMINI_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.Gemini = key
				}
			case "2":
				cfg.DefaultModel = "claude"
				fmt.Print("Enter your Anthropic API key (or press Enter to set ANTHROPIC_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.Anthropic = key
				}
			case "3":
				cfg.DefaultModel = "openai"
				fmt.Print("Enter your OpenAI API key (or press Enter to set OPENAI_API_KEY later): ")
				if key := readLineBuf(reader); key != "" {
					cfg.Keys.OpenAI = key
				}
			case "4":
				cfg.DefaultModel = "ollama"
				fmt.Printf("Ollama host (press Enter for %s): ", cfg.Ollama.Host)
				if host := readLineBuf(reader); host != "" {
					cfg.Ollama.Host = host
				}
			default:
				fmt.Println("Unrecognized choice; defaulting to gemini.")
				cfg.DefaultModel = "gemini"
			}

			fmt.Println()

			// Step 2: Quiz defaults.
			fmt.Println("Default quiz format:")
			fmt.Println("  [1] Multiple choice")
			fmt.Println("  [2] Free text (graded by the AI)")
			fmt.Print("> ")

			switch strings.TrimSpace(readLineBuf(reader)) {
			case "2":
				cfg.Quiz.Format = "free-text"
			default:
				cfg.Quiz.Format = "multiple-choice"
			}

			fmt.Printf("Default difficulty (easy/medium/hard, press Enter for %s): ", cfg.Quiz.Difficulty)
			if d := strings.ToLower(readLineBuf(reader)); d == "easy" || d == "medium" || d == "hard" {
				cfg.Quiz.Difficulty = d
			}

			fmt.Println()

			if err := config.SaveGlobal(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			path, _ := config.GlobalConfigPath()
			fmt.Printf("Configuration saved to %s\n", path)
			fmt.Println("Run `studybuddy ingest <file>` to add study material, then `studybuddy quiz`.")

			return nil
		},
	}
}

// readLineBuf reads a trimmed line from a bufio.Reader.
func readLineBuf(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
