package driven

import (
	"context"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// VectorIndex answers nearest-neighbour queries over stored chunk
// embeddings. Implementations order rows by cosine distance and expose
// per-row similarity as 1 - distance.
//
// Only rows where both the chunk and its owning document are active are
// eligible; superseded versions never surface.
type VectorIndex interface {
	// Query returns the limit nearest active chunks to the embedding.
	// filters, when non-nil, adds data-type, entity-id and recency-floor
	// predicates to the eligibility set.
	Query(ctx context.Context, embedding []float32, limit int, filters *domain.SearchFilters) ([]*domain.ChunkMatch, error)

	// Reindex rebuilds the similarity index. Ingest/delete churn fragments
	// it over time; maintenance runs this periodically.
	Reindex(ctx context.Context) error

	// Ping checks if the index backend is healthy.
	Ping(ctx context.Context) error
}
