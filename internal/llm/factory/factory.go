// internal/llm/factory/factory.go
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/config"
	"github.com/newthinker/stockscan/internal/llm"
	"github.com/newthinker/stockscan/internal/llm/claude"
	"github.com/newthinker/stockscan/internal/llm/gemini"
	"github.com/newthinker/stockscan/internal/llm/ollama"
	"github.com/newthinker/stockscan/internal/llm/openai"
)

// New creates the configured LLM provider, wrapped with the fallback
// provider when one is set. It returns nil when no provider is configured.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.Provider, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	primary, err := Named(ctx, cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == "" || cfg.Fallback == cfg.Provider {
		return primary, nil
	}
	secondary, err := Named(ctx, cfg.Fallback, cfg)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return llm.NewFallback(primary, secondary, logger), nil
}

// Named creates a single provider by name.
func Named(ctx context.Context, name string, cfg config.LLMConfig) (llm.Provider, error) {
	switch name {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	case "gemini":
		return gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", name)
	}
}
