package ai

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Ensure HybridProvider implements AIProvider
var _ driven.AIProvider = (*HybridProvider)(nil)

// HybridProvider prefers local embeddings and falls back to the remote
// provider when the local one fails. Completions always go remote.
type HybridProvider struct {
	local  driven.AIProvider
	remote driven.AIProvider
	logger *slog.Logger
}

// NewHybridProvider combines a local embedding provider with a remote
// full provider.
func NewHybridProvider(local, remote driven.AIProvider, logger *slog.Logger) *HybridProvider {
	return &HybridProvider{
		local:  local,
		remote: remote,
		logger: logger.With("component", "hybrid_provider"),
	}
}

// Embed generates an embedding, locally when possible
func (p *HybridProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	embedding, err := p.local.Embed(ctx, text)
	if err == nil {
		return embedding, nil
	}

	p.logger.Warn("local embedding failed, falling back to remote", "error", err)
	return p.remote.Embed(ctx, text)
}

// EmbedBatch generates embeddings, locally when possible
func (p *HybridProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := p.local.EmbedBatch(ctx, texts)
	if err == nil {
		return embeddings, nil
	}

	p.logger.Warn("local batch embedding failed, falling back to remote",
		"error", err, "count", len(texts))
	return p.remote.EmbedBatch(ctx, texts)
}

// Complete generates a chat completion via the remote provider
func (p *HybridProvider) Complete(ctx context.Context, messages []driven.Message, temperature float64, maxTokens int) (string, error) {
	return p.remote.Complete(ctx, messages, temperature, maxTokens)
}

// HealthCheck reports degraded when only one side is reachable
func (p *HybridProvider) HealthCheck(ctx context.Context) driven.ProviderHealth {
	localHealth := p.local.HealthCheck(ctx)
	remoteHealth := p.remote.HealthCheck(ctx)

	health := driven.ProviderHealth{
		Provider: p.Name(),
		Detail: map[string]string{
			"local":  localHealth.Status,
			"remote": remoteHealth.Status,
		},
	}

	switch {
	case localHealth.Status == "healthy" && remoteHealth.Status == "healthy":
		health.Status = "healthy"
	case localHealth.Status == "healthy" || remoteHealth.Status == "healthy":
		health.Status = "degraded"
	default:
		health.Status = "unhealthy"
	}

	return health
}

// Name returns the provider name
func (p *HybridProvider) Name() string {
	return "hybrid"
}

// Dimensions returns the local provider's embedding dimension,
// since that is the preferred embedding path.
func (p *HybridProvider) Dimensions() int {
	return p.local.Dimensions()
}
