package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// geminiAdapter implements Generator for Google Gemini via the REST API.
type geminiAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// NewGemini creates a Gemini adapter. If apiKey is empty, GEMINI_API_KEY is used.
func NewGemini(model, apiKey string) Generator {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return &geminiAdapter{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiDefaultBaseURL,
		client:  &http.Client{},
	}
}

func (g *geminiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             g.model,
		Provider:         ProviderGemini,
		MaxContextWindow: 1000000,
	}
}

// geminiGenerateRequest is the request body for the Gemini generateContent API.
type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiGenerateResponse is the response from the Gemini generateContent API.
type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *geminiAdapter) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var sysInstruction *geminiContent
	if req.SystemPrompt != "" {
		sysInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	genReq := geminiGenerateRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		SystemInstruction: sysInstruction,
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
		},
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("gemini generate marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	return g.doGenerate(ctx, url, body)
}

// doGenerate makes a generateContent call and returns the concatenated text.
func (g *geminiAdapter) doGenerate(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini generate: status %d: %s", resp.StatusCode, respBody)
	}

	var genResp geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("gemini generate decode: %w", err)
	}

	if genResp.Error != nil {
		return "", fmt.Errorf("gemini api error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}

	var parts []string
	for _, cand := range genResp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.Join(parts, ""), nil
}
