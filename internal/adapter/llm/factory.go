package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fridge-chef/internal/domain"
	"fridge-chef/internal/infra/config"
)

// ErrNoAPIKey signals that the provider has no credential configured.
// Callers treat this as "run without explanations", not a startup failure.
var ErrNoAPIKey = errors.New("llm: no API key configured")

// New builds the text generator for the configured provider, wrapped in
// a rate limiter when RequestsPerMinute is set.
func New(ctx context.Context, cfg config.LLMConfig) (domain.TextGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	var (
		gen domain.TextGenerator
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		gen, err = NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature)
	case "openai":
		gen = NewOpenAIClient(cfg.APIKey, cfg.Model, "", cfg.MaxTokens, cfg.Temperature)
	case "anthropic":
		gen = NewAnthropicClient(cfg.APIKey, cfg.Model, "", cfg.MaxTokens, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		gen = NewThrottled(gen, cfg.RequestsPerMinute)
	}
	return gen, nil
}
