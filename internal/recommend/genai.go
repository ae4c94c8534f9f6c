package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GenAIEngine generates recommendations with Google's Gemini API.
type GenAIEngine struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIEngine creates a Gemini-backed engine.
func NewGenAIEngine(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = DefaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEngine{client: client, model: model, timeout: timeout}, nil
}

// Name implements Engine.
func (e *GenAIEngine) Name() string { return "genai/" + e.model }

// Complete implements Engine.
func (e *GenAIEngine) Complete(ctx context.Context, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	})
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("genai returned no text")
	}
	return text, nil
}
