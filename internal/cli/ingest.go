package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Extract text from documents into the study session",
		Long: `Extract text from PDFs, Markdown, or plain-text files and add it to the
session's study material. Files that cannot be parsed are skipped; the
command succeeds as long as at least one file yields text.

Examples:
  studybuddy ingest notes.pdf
  studybuddy ingest chapter1.pdf chapter2.pdf glossary.md
  studybuddy ingest --replace fresh-notes.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("")
			if err != nil {
				return err
			}
			defer a.close()

			bar := spinner("  Extracting text")
			res, err := ingest.ExtractFiles(args)
			_ = bar.Finish()
			if err != nil {
				return err
			}

			sess := a.store.Load(a.key)
			if replace {
				sess.DocumentText = res.Text
			} else {
				sess.DocumentText += res.Text
			}
			if err := a.store.Save(a.key, sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Printf("Ingested %d document(s): %s\n", len(res.Names), strings.Join(res.Names, ", "))
			if len(res.Skipped) > 0 {
				fmt.Printf("Skipped: %s\n", strings.Join(res.Skipped, ", "))
			}
			fmt.Printf("Session %q now holds %d characters of study material.\n", a.key, len(sess.DocumentText))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace existing study material instead of appending")
	return cmd
}
