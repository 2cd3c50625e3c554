package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// vectorLiteral renders an embedding in pgvector's text format so it can
// be passed as a parameter and cast with ::vector.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// SaveBatch inserts chunks in a single transaction. Either every chunk of
// a document version becomes visible or none does.
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO document_chunks (id, document_id, chunk_text, chunk_index, embedding, metadata, recency_score, version, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5::vector, $6, $7, $8, $9, $10)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			metadataJSON, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return err
			}

			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.Text,
				chunk.ChunkIndex,
				vectorLiteral(chunk.Embedding),
				metadataJSON,
				chunk.RecencyScore,
				chunk.Version,
				chunk.IsActive,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByDocument retrieves all chunks for a document, ordered by index.
// Embeddings are not loaded; they only matter to the vector index.
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_text, chunk_index, metadata, recency_score, version, is_active, replaced_at, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON []byte
		var replacedAt sql.NullTime

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Text,
			&chunk.ChunkIndex,
			&metadataJSON,
			&chunk.RecencyScore,
			&chunk.Version,
			&chunk.IsActive,
			&replacedAt,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		chunk.ReplacedAt = TimePtr(replacedAt)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, &chunk)
	}

	return chunks, rows.Err()
}

// CountByDocument returns the chunk count for a document
func (s *ChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}

// Count returns total chunk count across all documents
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}

// DeactivateByDocument flips is_active off for a document's active chunks
func (s *ChunkStore) DeactivateByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE document_chunks
		SET is_active = FALSE, replaced_at = NOW()
		WHERE document_id = $1 AND is_active
	`, documentID)
	return err
}

// DeleteByDocument hard-deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}
