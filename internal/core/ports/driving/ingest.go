package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// IngestService is the upload-facing API. The synchronous part performs
// duplicate/version detection and document persistence only; chunking and
// embedding run in a background job identified by UploadResult.JobID.
type IngestService interface {
	// Upload streams a file into staging, resolves the version decision and
	// (for new content) enqueues the ingestion job. Never blocks on the
	// heavy pipeline.
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*domain.UploadResult, error)

	// List returns documents with their chunk counts, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.DocumentInfo, error)

	// Get returns a single document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete hard-deletes a document and its chunks, regardless of version
	// state, and invalidates the retrieval cache.
	Delete(ctx context.Context, id string) error

	// Stats returns corpus-wide document and chunk totals.
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}

// JobService exposes background job status for polling.
type JobService interface {
	// Status reports the job's current state, progress or terminal payload.
	Status(ctx context.Context, jobID string) (*domain.JobStatus, error)
}
