// Package adapter provides a unified interface for LLM providers.
package adapter

import (
	"context"
	"fmt"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// GenerateRequest holds the parameters for a generation call.
type GenerateRequest struct {
	SystemPrompt string
	Prompt       string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// ModelInfo describes the capabilities of a model.
type ModelInfo struct {
	Name             string
	Provider         string
	MaxContextWindow int
}

// Generator is the common interface all provider adapters implement.
// Generate blocks until the full response is available: every tutor
// action runs one call to completion before the next action is
// accepted, so there is no streaming surface.
type Generator interface {
	// Generate sends a prompt and returns the complete response text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// New constructs the Generator for the named provider.
//
//   - provider: "claude", "openai", "gemini", "ollama"
//   - model: model name override (empty = provider default)
//   - apiKey: provider API key (empty = read from env in the concrete adapter)
//   - ollamaHost: base URL for the Ollama server (used only when provider == "ollama")
func New(provider, model, apiKey, ollamaHost string) (Generator, error) {
	switch provider {
	case ProviderClaude:
		return NewClaude(model, apiKey), nil
	case ProviderOpenAI:
		return NewOpenAI(model, apiKey), nil
	case ProviderGemini:
		return NewGemini(model, apiKey), nil
	case ProviderOllama:
		host := ollamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllama(model, host), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: claude, openai, gemini, ollama", provider)
	}
}
