package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// MockAIProvider is a mock implementation of AIProvider for testing.
type MockAIProvider struct {
	mu sync.Mutex

	// EmbedFunc, when set, overrides the default deterministic embedding.
	EmbedFunc func(text string) ([]float32, error)

	// CompleteResponse is returned from Complete.
	CompleteResponse string

	// CompleteErr forces Complete to fail.
	CompleteErr error

	// EmbedCalls counts single-embed invocations (cache-hit tests rely on it).
	EmbedCalls int

	// BatchCalls records the batch sizes requested.
	BatchCalls []int

	// Dim is the reported embedding dimension (default 8).
	Dim int
}

// NewMockAIProvider creates a new MockAIProvider
func NewMockAIProvider() *MockAIProvider {
	return &MockAIProvider{Dim: 8}
}

func (m *MockAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbedCalls++
	if m.EmbedFunc != nil {
		return m.EmbedFunc(text)
	}
	return m.deterministicEmbedding(text), nil
}

func (m *MockAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchCalls = append(m.BatchCalls, len(texts))

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.EmbedFunc != nil {
			vec, err := m.EmbedFunc(text)
			if err != nil {
				return nil, err
			}
			out[i] = vec
			continue
		}
		out[i] = m.deterministicEmbedding(text)
	}
	return out, nil
}

func (m *MockAIProvider) Complete(ctx context.Context, messages []driven.Message, temperature float64, maxTokens int) (string, error) {
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	if m.CompleteResponse != "" {
		return m.CompleteResponse, nil
	}
	return "mock completion", nil
}

func (m *MockAIProvider) HealthCheck(ctx context.Context) driven.ProviderHealth {
	return driven.ProviderHealth{Status: "healthy", Provider: m.Name()}
}

func (m *MockAIProvider) Name() string {
	return "mock"
}

func (m *MockAIProvider) Dimensions() int {
	if m.Dim <= 0 {
		return 8
	}
	return m.Dim
}

// deterministicEmbedding derives a stable vector from the text so equal
// inputs embed equally.
func (m *MockAIProvider) deterministicEmbedding(text string) []float32 {
	dim := m.Dimensions()
	vec := make([]float32, dim)
	var acc uint32
	for _, r := range text {
		acc = acc*31 + uint32(r)
	}
	for i := range vec {
		acc = acc*1103515245 + 12345
		vec[i] = float32(acc%1000) / 1000
	}
	return vec
}
