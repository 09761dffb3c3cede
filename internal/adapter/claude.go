package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// claudeAdapter implements Generator for Anthropic Claude.
type claudeAdapter struct {
	client *anthropic.Client
	model  string
}

// NewClaude creates a Claude adapter. If apiKey is empty, ANTHROPIC_API_KEY is used.
func NewClaude(model, apiKey string) Generator {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &claudeAdapter{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (c *claudeAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             c.model,
		Provider:         ProviderClaude,
		MaxContextWindow: 200000,
	}
}

func (c *claudeAdapter) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
			},
		},
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("claude generate: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("claude generate: empty response")
	}
	return resp.Content[0].GetText(), nil
}
