package driven

import (
	"context"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save inserts a new document row
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetActiveByFilename retrieves the active document for a filename lineage.
	// Returns domain.ErrNotFound when the filename has no active version.
	GetActiveByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// GetActiveByContentHash retrieves any active document with the given
	// content hash, regardless of filename. Used for duplicate detection.
	GetActiveByContentHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// Supersede atomically deactivates oldDoc and all of its active chunks
	// and inserts newDoc, in a single transaction. The deactivation carries
	// an optimistic guard on oldDoc still being active; if a concurrent
	// upload won the race the whole transaction is rolled back and
	// domain.ErrVersionConflict is returned.
	Supersede(ctx context.Context, oldDoc, newDoc *domain.Document) error

	// SetRawContent stores the extracted text on the document
	SetRawContent(ctx context.Context, id, rawContent string) error

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Delete hard-deletes a document; its chunks cascade
	Delete(ctx context.Context, id string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch inserts chunks in a single transaction. Either every chunk
	// of a document version becomes visible or none does.
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document, ordered by index
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// CountByDocument returns the chunk count for a document
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// Count returns total chunk count across all documents
	Count(ctx context.Context) (int, error)

	// DeactivateByDocument flips is_active off for a document's active chunks
	DeactivateByDocument(ctx context.Context, documentID string) error

	// DeleteByDocument hard-deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
