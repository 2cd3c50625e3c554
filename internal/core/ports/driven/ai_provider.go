package driven

import "context"

// Message is a chat message in the common role/content form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProviderHealth is the result of an AIProvider health probe.
type ProviderHealth struct {
	Status   string            `json:"status"` // "healthy", "degraded" or "unhealthy"
	Provider string            `json:"provider"`
	Detail   map[string]string `json:"detail,omitempty"`
}

// AIProvider generates embeddings and chat completions.
// Variants: remote (OpenAI-compatible API), local (Ollama), and hybrid
// (local embeddings with logged fallback to remote; completions always
// remote). Local variants signal domain.ErrCompletionUnsupported from
// Complete.
type AIProvider interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Complete generates a chat completion
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)

	// HealthCheck verifies the provider is reachable
	HealthCheck(ctx context.Context) ProviderHealth

	// Name returns the provider name
	Name() string

	// Dimensions returns the provider's native embedding dimension
	Dimensions() int
}
