package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// MockVectorIndex is a mock implementation of VectorIndex for testing.
// Matches are served from a fixed slice, sorted by similarity descending
// the way a cosine-distance index would order them.
type MockVectorIndex struct {
	mu      sync.Mutex
	matches []*domain.ChunkMatch

	// QueryCalls records the limit of every query, so tests can assert
	// oversampling behaviour.
	QueryCalls []int

	// LastFilters records the filters of the most recent query.
	LastFilters *domain.SearchFilters

	// QueryErr forces Query to fail.
	QueryErr error

	// ReindexCalls counts Reindex invocations.
	ReindexCalls int

	// ReindexErr forces Reindex to fail.
	ReindexErr error
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex(matches ...*domain.ChunkMatch) *MockVectorIndex {
	return &MockVectorIndex{matches: matches}
}

// SetMatches replaces the stored matches.
func (m *MockVectorIndex) SetMatches(matches ...*domain.ChunkMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = matches
}

func (m *MockVectorIndex) Query(ctx context.Context, embedding []float32, limit int, filters *domain.SearchFilters) ([]*domain.ChunkMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	m.QueryCalls = append(m.QueryCalls, limit)
	m.LastFilters = filters

	eligible := make([]*domain.ChunkMatch, 0, len(m.matches))
	for _, match := range m.matches {
		if filters != nil && !matchesFilters(match, filters) {
			continue
		}
		eligible = append(eligible, match)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Similarity > eligible[j].Similarity
	})
	if limit < len(eligible) {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (m *MockVectorIndex) Reindex(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReindexErr != nil {
		return m.ReindexErr
	}
	m.ReindexCalls++
	return nil
}

func (m *MockVectorIndex) Ping(ctx context.Context) error {
	return nil
}

func matchesFilters(match *domain.ChunkMatch, f *domain.SearchFilters) bool {
	if f.MinRecencyScore != nil && match.Chunk.RecencyScore < *f.MinRecencyScore {
		return false
	}
	if len(f.DataTypes) > 0 {
		for _, want := range f.DataTypes {
			if !containsString(match.Chunk.Metadata.DataTypes, want) {
				return false
			}
		}
	}
	if len(f.EntityIDs) > 0 {
		found := false
		for _, want := range f.EntityIDs {
			if containsString(match.Chunk.Metadata.Entities.IDs, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
