package driving

import (
	"context"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// SearchService performs conflict-aware hybrid retrieval.
type SearchService interface {
	// Search embeds the query, retrieves oversampled candidates from the
	// vector index and re-ranks them by the similarity/recency blend.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]*domain.SearchResult, error)

	// SearchFiltered adds metadata predicates to the candidate set. Results
	// are ordered by the (similarity, recency) tuple rather than the
	// blended hybrid score.
	SearchFiltered(ctx context.Context, query string, topK int, filters domain.SearchFilters) ([]*domain.SearchResult, error)

	// InvalidateCache clears every cached result set. Called after any
	// ingestion commit that changes the active document/chunk sets.
	InvalidateCache()
}

// QAService answers questions over the knowledge base.
type QAService interface {
	// Answer retrieves context for the question and composes an answer
	// with the completion provider.
	Answer(ctx context.Context, question string, topK int) (*domain.Answer, error)
}

// CompletenessService audits knowledge-base coverage.
type CompletenessService interface {
	// Check searches for each requirement and classifies its coverage.
	Check(ctx context.Context, requirements []string) (*domain.CompletenessReport, error)
}
