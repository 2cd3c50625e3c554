package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Ensure OpenAIProvider implements AIProvider
var _ driven.AIProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements AIProvider against an OpenAI-compatible API.
type OpenAIProvider struct {
	apiKey         string
	embeddingModel string
	chatModel      string
	baseURL        string
	dimensions     int
	client         *http.Client
}

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIProvider creates a provider against api.openai.com or a
// compatible endpoint given via baseURL.
func NewOpenAIProvider(apiKey, embeddingModel, chatModel, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	dimensions, ok := openAIModelDimensions[embeddingModel]
	if !ok {
		// Default to 1536 for unknown models
		dimensions = 1536
	}

	return &OpenAIProvider{
		apiKey:         apiKey,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		baseURL:        baseURL,
		dimensions:     dimensions,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// embeddingRequest is the request body for the embeddings endpoint
type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// embeddingResponse is the response from the embeddings endpoint
type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// chatRequest is the request body for the chat completions endpoint
type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []driven.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

// chatResponse is the response from the chat completions endpoint
type chatResponse struct {
	Choices []struct {
		Message driven.Message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Embed generates an embedding for a single text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
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
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Input:          texts,
		Model:          p.embeddingModel,
		EncodingFormat: "float",
	}

	var embResp embeddingResponse
	if err := p.doRequest(ctx, "/embeddings", reqBody, &embResp); err != nil {
		return nil, err
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s (type: %s, code: %s)",
			embResp.Error.Message, embResp.Error.Type, embResp.Error.Code)
	}

	// Sort by index to ensure order matches input
	embeddings := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}

	return embeddings, nil
}

// Complete generates a chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, messages []driven.Message, temperature float64, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model:       p.chatModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var resp chatResponse
	if err := p.doRequest(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s (type: %s, code: %s)",
			resp.Error.Message, resp.Error.Type, resp.Error.Code)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies the provider is reachable
func (p *OpenAIProvider) HealthCheck(ctx context.Context) driven.ProviderHealth {
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
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Dimensions returns the provider's native embedding dimension
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) doRequest(ctx context.Context, path string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("OpenAI API returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
