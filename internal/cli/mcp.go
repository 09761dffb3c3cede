package cli

import (
	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the study assistant over the Model Context Protocol (stdio)",
		Long: `Run an MCP server on stdio exposing the study assistant to MCP clients.

Tools:
  ask_tutor       ask a question grounded in the ingested material
  study_context   return the assembled documents + compacted chat
  session_status  report score, history counts, and agent metrics

Register with a client, e.g.:
  claude mcp add studybuddy -- studybuddy mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(model)
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcp.NewServer(a.store, a.tutor, a.assembler, a.key)
			return srv.Serve(version)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "LLM provider override: claude, openai, gemini, ollama")
	return cmd
}
