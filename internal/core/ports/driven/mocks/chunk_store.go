package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// MockChunkStore is a mock implementation of ChunkStore for testing
type MockChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	// SaveBatchErr forces SaveBatch to fail (for retry tests)
	SaveBatchErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks: make(map[string]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if m.SaveBatchErr != nil {
		return m.SaveBatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
	}
	return nil
}

func (m *MockChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (m *MockChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (m *MockChunkStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MockChunkStore) DeactivateByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID && chunk.IsActive {
			chunk.IsActive = false
			chunk.ReplacedAt = &now
		}
	}
	return nil
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

// ActiveByDocument returns the active chunks for a document. Test helper.
func (m *MockChunkStore) ActiveByDocument(documentID string) []*domain.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID && chunk.IsActive {
			out = append(out, chunk)
		}
	}
	return out
}
