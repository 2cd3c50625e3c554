package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, filename, content_hash, file_size, version, is_active, replaced_at, metadata, uploaded_at`

// Save inserts a new document row
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, filename, content_hash, file_size, version, is_active, replaced_at, metadata, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.ContentHash,
		doc.FileSize,
		doc.Version,
		doc.IsActive,
		NullTime(doc.ReplacedAt),
		metadataJSON,
		doc.UploadedAt,
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetActiveByFilename retrieves the active document for a filename lineage
func (s *DocumentStore) GetActiveByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE filename = $1 AND is_active`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, filename))
}

// GetActiveByContentHash retrieves any active document with the given hash
func (s *DocumentStore) GetActiveByContentHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE content_hash = $1 AND is_active LIMIT 1`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, contentHash))
}

// Supersede atomically replaces the active version of a filename.
// The deactivation carries an optimistic guard on the old row still being
// active: a concurrent upload that already bumped the version makes the
// guard miss, the transaction rolls back and ErrVersionConflict surfaces.
func (s *DocumentStore) Supersede(ctx context.Context, oldDoc, newDoc *domain.Document) error {
	metadataJSON, err := json.Marshal(newDoc.Metadata)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET is_active = FALSE, replaced_at = NOW()
			WHERE id = $1 AND is_active
		`, oldDoc.ID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("document %s already superseded: %w", oldDoc.ID, domain.ErrVersionConflict)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE document_chunks
			SET is_active = FALSE, replaced_at = NOW()
			WHERE document_id = $1 AND is_active
		`, oldDoc.ID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (id, filename, content_hash, file_size, version, is_active, metadata, uploaded_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		`,
			newDoc.ID,
			newDoc.Filename,
			newDoc.ContentHash,
			newDoc.FileSize,
			newDoc.Version,
			metadataJSON,
			newDoc.UploadedAt,
		)
		return err
	})
}

// SetRawContent stores the extracted text on the document
func (s *DocumentStore) SetRawContent(ctx context.Context, id, rawContent string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET raw_content = $2 WHERE id = $1`, id, rawContent)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves documents with pagination, newest first
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY uploaded_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete hard-deletes a document; its chunks cascade
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON []byte
	var replacedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.ContentHash,
		&doc.FileSize,
		&doc.Version,
		&doc.IsActive,
		&replacedAt,
		&metadataJSON,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.ReplacedAt = TimePtr(replacedAt)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, err
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}

	return &doc, nil
}
