package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements conflict-aware hybrid retrieval.
//
// Candidates come back from the vector index ordered by cosine distance;
// the service oversamples, re-ranks by the similarity/recency blend and
// truncates to the requested count. Result sets for the primary search
// are cached until the next ingestion commit.
type searchService struct {
	vectorIndex driven.VectorIndex
	provider    driven.AIProvider
	cache       *SearchCache
	logger      *slog.Logger
}

// NewSearchService creates a new SearchService. The cache is shared with
// the ingestion side, which invalidates it on every active-set change.
func NewSearchService(
	vectorIndex driven.VectorIndex,
	provider driven.AIProvider,
	cache *SearchCache,
	logger *slog.Logger,
) driving.SearchService {
	return &searchService{
		vectorIndex: vectorIndex,
		provider:    provider,
		cache:       cache,
		logger:      logger.With("service", "search"),
	}
}

// Search embeds the query, retrieves oversampled candidates and re-ranks
// them by the hybrid score.
func (s *searchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultSearchOptions().TopK
	}

	key := cacheKey(query, opts.TopK, opts.UseRecencyBoost)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit", "query", query)
		return cached, nil
	}

	embedding, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	embedding = normalizeDimension(embedding, targetEmbeddingDim)

	// Oversample so re-ranking has candidates to promote past the
	// nearest-by-distance cutoff.
	limit := opts.TopK
	if opts.UseRecencyBoost {
		limit = opts.TopK * domain.OversampleFactor
	}

	matches, err := s.vectorIndex.Query(ctx, embedding, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]*domain.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match.Similarity < opts.SimilarityThreshold {
			continue
		}
		result := toSearchResult(match)
		if opts.UseRecencyBoost {
			result.HybridScore = match.Similarity*(1-opts.RecencyWeight) +
				result.RecencyScore*opts.RecencyWeight
		} else {
			result.HybridScore = match.Similarity
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	s.cache.Put(key, results)
	s.logger.Info("search complete", "query", query, "results", len(results), "boost", opts.UseRecencyBoost)
	return results, nil
}

// SearchFiltered pushes metadata predicates down to the index and orders
// the final set by the (similarity, recency) tuple instead of the blended
// score. Filtered results are not cached.
func (s *searchService) SearchFiltered(ctx context.Context, query string, topK int, filters domain.SearchFilters) ([]*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	if topK <= 0 {
		topK = domain.DefaultSearchOptions().TopK
	}

	embedding, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	embedding = normalizeDimension(embedding, targetEmbeddingDim)

	matches, err := s.vectorIndex.Query(ctx, embedding, topK*domain.OversampleFactor, &filters)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]*domain.SearchResult, 0, len(matches))
	for _, match := range matches {
		result := toSearchResult(match)
		result.HybridScore = match.Similarity
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].RecencyScore > results[j].RecencyScore
	})
	if len(results) > topK {
		results = results[:topK]
	}

	s.logger.Info("filtered search complete", "query", query, "results", len(results))
	return results, nil
}

// InvalidateCache clears every cached result set.
func (s *searchService) InvalidateCache() {
	s.cache.InvalidateAll()
	s.logger.Info("search cache cleared")
}

// toSearchResult flattens an index match into the API result shape.
// A zero recency score is treated as the neutral default.
func toSearchResult(match *domain.ChunkMatch) *domain.SearchResult {
	chunk := match.Chunk
	recency := chunk.RecencyScore
	if recency == 0 {
		recency = 0.5
	}
	return &domain.SearchResult{
		ChunkID:      chunk.ID,
		DocumentID:   chunk.DocumentID,
		Filename:     match.Filename,
		Text:         chunk.Text,
		ChunkIndex:   chunk.ChunkIndex,
		Version:      chunk.Version,
		UploadedAt:   match.UploadedAt,
		Similarity:   match.Similarity,
		RecencyScore: recency,
		Metadata: domain.SearchResultMetadata{
			Entities:  chunk.Metadata.Entities,
			DataTypes: chunk.Metadata.DataTypes,
			Temporal:  chunk.Metadata.Temporal,
		},
	}
}
