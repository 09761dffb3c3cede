package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/studybuddy/studybuddy/internal/session"
)

// questionPayload is the JSON shape returned by the question prompts.
// Options and Explanation are absent for free-text questions.
type questionPayload struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// parseQuestionJSON extracts a QuizItem from the model's output.
// Lenient: searches for the first '{' and last '}' to handle models
// that wrap the object in prose or markdown fences.
func parseQuestionJSON(raw string, format session.QuizFormat, matchThreshold float64) (*session.QuizItem, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var payload questionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("parse question JSON: %w", err)
	}

	question := strings.TrimSpace(payload.Question)
	answer := strings.TrimSpace(payload.Answer)
	if question == "" || answer == "" {
		return nil, fmt.Errorf("question JSON missing required fields")
	}

	item := &session.QuizItem{
		Question:    question,
		Answer:      answer,
		Explanation: strings.TrimSpace(payload.Explanation),
		Format:      format,
	}

	if format == session.FormatMultipleChoice {
		if len(payload.Options) < 2 {
			return nil, fmt.Errorf("MCQ JSON has %d options, need at least 2", len(payload.Options))
		}
		options := make([]string, 0, len(payload.Options))
		for _, opt := range payload.Options {
			options = append(options, strings.TrimSpace(opt))
		}
		item.Options = options
		item.Answer = repairAnswerKey(answer, options, matchThreshold)
	}

	return item, nil
}

// repairAnswerKey maps the model's answer key onto one of the listed
// options so grading always compares against a real option. Exact
// matches (ignoring case) win; otherwise the closest option above the
// similarity threshold; otherwise the first option.
func repairAnswerKey(raw string, options []string, threshold float64) string {
	for _, opt := range options {
		if strings.EqualFold(raw, opt) {
			return opt
		}
	}

	best := ""
	bestScore := 0.0
	for _, opt := range options {
		if score := similarity(raw, opt); score > bestScore {
			best, bestScore = opt, score
		}
	}
	if bestScore >= threshold {
		return best
	}
	return options[0]
}

// similarity returns a 0..1 ratio based on edit distance, comparing
// case-insensitively.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
