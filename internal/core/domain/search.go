package domain

import "time"

// Oversampling factor applied to the requested result count when querying
// the vector index, leaving room for hybrid re-ranking before truncation.
const OversampleFactor = 3

// SearchOptions configures a hybrid search request.
type SearchOptions struct {
	TopK                int     `json:"top_k"`
	UseRecencyBoost     bool    `json:"use_recency_boost"`
	RecencyWeight       float64 `json:"recency_weight"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// DefaultSearchOptions returns the standard hybrid search configuration.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:                10,
		UseRecencyBoost:     true,
		RecencyWeight:       0.3,
		SimilarityThreshold: 0.0,
	}
}

// SearchFilters are the extra predicates supported by the filtered search
// variant. All filters are optional and combine with AND.
type SearchFilters struct {
	DataTypes       []string `json:"data_types,omitempty"`
	EntityIDs       []string `json:"entity_ids,omitempty"`
	MinRecencyScore *float64 `json:"min_recency_score,omitempty"`
}

// SearchResult is a ranked chunk returned from the retrieval engine.
// HybridScore blends cosine similarity with the chunk's recency score.
type SearchResult struct {
	ChunkID      string               `json:"chunk_id"`
	DocumentID   string               `json:"document_id"`
	Filename     string               `json:"filename"`
	Text         string               `json:"text"`
	ChunkIndex   int                  `json:"chunk_index"`
	Version      int                  `json:"version"`
	UploadedAt   time.Time            `json:"uploaded_at"`
	Similarity   float64              `json:"similarity"`
	RecencyScore float64              `json:"recency_score"`
	HybridScore  float64              `json:"hybrid_score"`
	Metadata     SearchResultMetadata `json:"metadata"`
}

// SearchResultMetadata is the metadata subset exposed on search results.
type SearchResultMetadata struct {
	Entities  Entities     `json:"entities"`
	DataTypes []string     `json:"data_types"`
	Temporal  TemporalInfo `json:"temporal_info"`
}

// ChunkMatch is a raw nearest-neighbour row from the vector index before
// hybrid re-ranking. Similarity is 1 - cosine distance.
type ChunkMatch struct {
	Chunk      *Chunk
	Filename   string
	UploadedAt time.Time
	Similarity float64
}

// Answer is a question-answering response composed from retrieved chunks.
type Answer struct {
	Answer   string         `json:"answer"`
	Sources  []AnswerSource `json:"sources"`
	Provider string         `json:"provider"`
}

// AnswerSource identifies a chunk used as context for an answer.
type AnswerSource struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}
