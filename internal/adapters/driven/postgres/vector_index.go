package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on pgvector.
// Queries order by cosine distance (<=>) against the HNSW index and only
// consider rows where both the chunk and its document are active, so
// superseded versions never surface.
type VectorIndex struct {
	db *DB
}

// NewVectorIndex creates a new VectorIndex
func NewVectorIndex(db *DB) *VectorIndex {
	return &VectorIndex{db: db}
}

// Query returns the limit nearest active chunks to the embedding.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, limit int, filters *domain.SearchFilters) ([]*domain.ChunkMatch, error) {
	where := []string{
		"dc.embedding IS NOT NULL",
		"dc.is_active",
		"d.is_active",
	}
	args := []any{vectorLiteral(embedding)}

	if filters != nil {
		if filters.MinRecencyScore != nil {
			args = append(args, *filters.MinRecencyScore)
			where = append(where, fmt.Sprintf("dc.recency_score >= $%d", len(args)))
		}
		if len(filters.DataTypes) > 0 {
			typesJSON, err := json.Marshal(map[string][]string{"data_types": filters.DataTypes})
			if err != nil {
				return nil, err
			}
			args = append(args, typesJSON)
			where = append(where, fmt.Sprintf("dc.metadata @> $%d", len(args)))
		}
		if len(filters.EntityIDs) > 0 {
			args = append(args, pq.Array(filters.EntityIDs))
			where = append(where, fmt.Sprintf("dc.metadata -> 'entities' -> 'ids' ?| $%d", len(args)))
		}
	}

	args = append(args, limit)

	query := `
		SELECT
			dc.id, dc.document_id, dc.chunk_text, dc.chunk_index,
			dc.metadata, dc.recency_score, dc.version, dc.created_at,
			d.filename, d.uploaded_at,
			1 - (dc.embedding <=> $1::vector) AS similarity
		FROM document_chunks dc
		JOIN documents d ON dc.document_id = d.id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY dc.embedding <=> $1::vector
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := v.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.ChunkMatch
	for rows.Next() {
		var chunk domain.Chunk
		var match domain.ChunkMatch
		var metadataJSON []byte

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Text,
			&chunk.ChunkIndex,
			&metadataJSON,
			&chunk.RecencyScore,
			&chunk.Version,
			&chunk.CreatedAt,
			&match.Filename,
			&match.UploadedAt,
			&match.Similarity,
		)
		if err != nil {
			return nil, err
		}

		chunk.IsActive = true
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
				return nil, err
			}
		}
		match.Chunk = &chunk
		matches = append(matches, &match)
	}

	return matches, rows.Err()
}

// Reindex rebuilds the HNSW index. Ingest and delete churn fragments it,
// so maintenance runs this nightly.
func (v *VectorIndex) Reindex(ctx context.Context) error {
	_, err := v.db.ExecContext(ctx, `REINDEX INDEX idx_chunks_embedding`)
	if err != nil {
		return fmt.Errorf("reindex embeddings: %w", err)
	}
	return nil
}

// Ping checks whether the index backend is reachable.
func (v *VectorIndex) Ping(ctx context.Context) error {
	return v.db.PingContext(ctx)
}
