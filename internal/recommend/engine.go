// Package recommend turns a bag into catalog-matched disc recommendations.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine kinds accepted by NewEngine.
const (
	EngineGenAI  = "genai"
	EngineOpenAI = "openai"
)

// Default models per engine kind.
const (
	DefaultGenAIModel  = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-3.5-turbo"
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 60 * time.Second

// Engine is a text-completion backend.
type Engine interface {
	// Complete sends prompt and returns the raw text of the reply.
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend and model in logs.
	Name() string
}

// EngineConfig selects and configures an Engine.
type EngineConfig struct {
	Kind    string
	APIKey  string
	Model   string
	BaseURL string // openai only; empty means the public API
	Timeout time.Duration
}

// NewEngine builds the configured engine. An empty API key yields (nil, nil):
// recommendations are then reported as unavailable.
func NewEngine(ctx context.Context, cfg EngineConfig) (Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", EngineGenAI:
		engine, err := NewGenAIEngine(ctx, cfg.APIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case EngineOpenAI:
		return NewOpenAIEngine(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown recommendation engine %q", cfg.Kind)
	}
}
