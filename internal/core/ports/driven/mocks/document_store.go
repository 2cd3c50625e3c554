package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	// Chunks, when set, lets Supersede deactivate the old version's chunks
	// the way the real transactional store does.
	Chunks *MockChunkStore

	// SupersedeErr forces Supersede to fail (for race/rollback tests)
	SupersedeErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) GetActiveByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.documents {
		if doc.Filename == filename && doc.IsActive {
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) GetActiveByContentHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.documents {
		if doc.ContentHash == contentHash && doc.IsActive {
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) Supersede(ctx context.Context, oldDoc, newDoc *domain.Document) error {
	if m.SupersedeErr != nil {
		return m.SupersedeErr
	}

	m.mu.Lock()
	stored, ok := m.documents[oldDoc.ID]
	if !ok || !stored.IsActive {
		m.mu.Unlock()
		return domain.ErrVersionConflict
	}
	now := time.Now()
	stored.IsActive = false
	stored.ReplacedAt = &now
	m.documents[newDoc.ID] = newDoc
	m.mu.Unlock()

	if m.Chunks != nil {
		return m.Chunks.DeactivateByDocument(ctx, oldDoc.ID)
	}
	return nil
}

func (m *MockDocumentStore) SetRawContent(ctx context.Context, id, rawContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.RawContent = rawContent
	return nil
}

func (m *MockDocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*domain.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.documents[id]
	delete(m.documents, id)
	m.mu.Unlock()

	if !ok {
		return domain.ErrNotFound
	}
	if m.Chunks != nil {
		return m.Chunks.DeleteByDocument(ctx, id)
	}
	return nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

// ActiveByFilename returns every active document for a filename.
// Test helper for asserting the single-active invariant.
func (m *MockDocumentStore) ActiveByFilename(filename string) []*domain.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []*domain.Document
	for _, doc := range m.documents {
		if doc.Filename == filename && doc.IsActive {
			active = append(active, doc)
		}
	}
	return active
}

// All returns every stored document. Test helper.
func (m *MockDocumentStore) All() []*domain.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]*domain.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs
}
