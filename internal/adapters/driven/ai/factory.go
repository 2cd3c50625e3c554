package ai

import (
	"fmt"
	"log/slog"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Config selects and configures an AI provider.
type Config struct {
	// Provider is one of "openai", "local" or "hybrid"
	Provider string

	// OpenAI settings (remote)
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string

	// Ollama settings (local)
	OllamaBaseURL    string
	OllamaModel      string
	OllamaDimensions int
}

// NewProvider creates an AIProvider from configuration.
func NewProvider(cfg Config, logger *slog.Logger) (driven.AIProvider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.ChatModel, cfg.OpenAIBaseURL)

	case "local":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaDimensions)

	case "hybrid":
		local, err := NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaDimensions)
		if err != nil {
			return nil, fmt.Errorf("hybrid local provider: %w", err)
		}
		remote, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.ChatModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("hybrid remote provider: %w", err)
		}
		return NewHybridProvider(local, remote, logger), nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}
