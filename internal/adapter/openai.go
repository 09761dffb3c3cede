package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// openaiAdapter implements Generator for OpenAI.
type openaiAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI adapter. If apiKey is empty, OPENAI_API_KEY is used.
func NewOpenAI(model, apiKey string) Generator {
	if model == "" {
		model = "gpt-4o"
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return &openaiAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *openaiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             o.model,
		Provider:         ProviderOpenAI,
		MaxContextWindow: 128000,
	}
}

func (o *openaiAdapter) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai generate: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
