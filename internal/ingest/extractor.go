// Package ingest extracts study text from documents and appends it to
// the session's document store.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minDocumentChars filters out documents whose extraction produced
// effectively nothing (scanned PDFs, empty files). The banner alone is
// shorter than this.
const minDocumentChars = 100

// Result summarizes a multi-file extraction.
type Result struct {
	Text    string
	Names   []string
	Skipped []string
}

// ExtractFiles extracts text from each path, wrapping every document in
// a named banner so downstream prompts can attribute content. Files
// that fail to parse or yield too little text are skipped; extraction
// succeeds as long as at least one file produced text.
func ExtractFiles(paths []string) (*Result, error) {
	res := &Result{}
	for _, path := range paths {
		text, err := extractOne(path)
		name := filepath.Base(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", name, err)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		banner := fmt.Sprintf("\n--- START OF DOCUMENT: %s ---\n", name)
		if len(banner)+len(text) <= minDocumentChars {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: too little extractable text\n", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		res.Text += banner + text
		res.Names = append(res.Names, name)
	}
	if len(res.Names) == 0 {
		return nil, fmt.Errorf("no text could be extracted from %d file(s)", len(paths))
	}
	return res, nil
}

func extractOne(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md", ".markdown", ".rst", ".text", "":
		return extractPlainText(path)
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single bad page should not sink the document.
			continue
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractPlainText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
