package llm

import (
	"context"
	"fmt"

	"kitchen-ai/internal/config"
)

// New builds the configured provider wrapped in a rate limiter.
func New(ctx context.Context, cfg config.LLMConfig) (*RateLimited, error) {
	var gen TextGenerator

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		gen = client
	case config.ProviderOpenRouter:
		gen = NewChatClient(ChatConfig{
			URL:     orDefault(cfg.BaseURL, OpenRouterURL),
			APIKey:  cfg.APIKey,
			Model:   orDefault(cfg.Model, defaultOpenRouterModel),
			Timeout: cfg.Timeout,
			Title:   "KitchenAI",
		})
	case config.ProviderGroq:
		gen = NewChatClient(ChatConfig{
			URL:     orDefault(cfg.BaseURL, GroqURL),
			APIKey:  cfg.APIKey,
			Model:   orDefault(cfg.Model, defaultGroqModel),
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	return NewRateLimited(gen, cfg.RequestsPerMinute), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
