package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenAIBaseURL is the public OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIEngine calls an OpenAI-compatible responses endpoint.
type OpenAIEngine struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIEngine creates an engine for the responses API.
func NewOpenAIEngine(apiKey, model, baseURL string, timeout time.Duration) *OpenAIEngine {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIEngine{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Engine.
func (e *OpenAIEngine) Name() string { return "openai/" + e.model }

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesReply struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// text returns output_text when present, else the concatenated output_text parts.
func (r responsesReply) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

// Complete implements Engine.
func (e *OpenAIEngine) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(responsesRequest{Model: e.model, Input: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var reply responsesReply
	decodeErr := json.Unmarshal(raw, &reply)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && reply.Error != nil && reply.Error.Message != "" {
			return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, reply.Error.Message)
		}
		return "", fmt.Errorf("openai error (status %d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if reply.Error != nil && reply.Error.Message != "" {
		return "", fmt.Errorf("openai error: %s", reply.Error.Message)
	}

	text := reply.text()
	if text == "" {
		return "", errors.New("openai returned no text")
	}
	return text, nil
}
