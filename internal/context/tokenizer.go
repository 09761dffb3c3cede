// Package context bounds the study context handed to generation calls:
// the Compactor summarizes older chat turns and the Assembler composes
// document and chat sections into a single prompt context.
package context

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps tiktoken for approximate token counting.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer creates a Tokenizer using the cl100k_base encoding
// (a good approximation for all supported providers).
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the approximate number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// Truncate truncates s to at most maxTokens tokens, returning the result.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	// Decode the truncated token slice back to a string.
	return t.enc.Decode(tokens[:maxTokens])
}
