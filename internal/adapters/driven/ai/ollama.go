package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Ensure OllamaProvider implements AIProvider
var _ driven.AIProvider = (*OllamaProvider)(nil)

const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaEmbedEndpoint  = "/api/embed"
)

// OllamaProvider generates embeddings from a local Ollama instance.
// It does not serve chat completions; Complete always returns
// domain.ErrCompletionUnsupported.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// NewOllamaProvider creates a provider against a local Ollama server.
// dimensions is the native output size of the configured model.
func NewOllamaProvider(baseURL, model string, dimensions int) (*OllamaProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	if dimensions <= 0 {
		dimensions = 768
	}

	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimensions: dimensions,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// Embed generates an embedding for a single text
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+ollamaEmbedEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(respBody)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}

	return out.Embeddings, nil
}

// Complete always fails; Ollama is embeddings-only in this deployment.
func (p *OllamaProvider) Complete(ctx context.Context, messages []driven.Message, temperature float64, maxTokens int) (string, error) {
	return "", domain.ErrCompletionUnsupported
}

// HealthCheck verifies the local server is reachable
func (p *OllamaProvider) HealthCheck(ctx context.Context) driven.ProviderHealth {
	health := driven.ProviderHealth{
		Status:   "healthy",
		Provider: p.Name(),
	}
	if _, err := p.Embed(ctx, "health check"); err != nil {
		health.Status = "unhealthy"
		health.Detail = map[string]string{"error": err.Error()}
	}
	return health
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "local"
}

// Dimensions returns the provider's native embedding dimension
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}
