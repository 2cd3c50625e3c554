package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// MockTextExtractor is a mock implementation of TextExtractor.
type MockTextExtractor struct {
	mu sync.Mutex

	// Texts maps staged file paths to the text to return.
	Texts map[string]string
	// Err, when set, is returned from every ExtractText call.
	Err error

	calls []string
}

// NewMockTextExtractor creates a new MockTextExtractor
func NewMockTextExtractor() *MockTextExtractor {
	return &MockTextExtractor{Texts: make(map[string]string)}
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, path, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	if m.Err != nil {
		return "", m.Err
	}
	text, ok := m.Texts[path]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

// Calls returns the staged paths extracted so far (test helper).
func (m *MockTextExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
