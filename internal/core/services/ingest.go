package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

const (
	// maxUploadSize caps a single upload at 100 MiB; exceeding it is
	// detected mid-stream and the partial staged file is removed.
	maxUploadSize = 100 * 1024 * 1024

	// uploadReadSize is how much of the body is read per iteration.
	uploadReadSize = 5 * 1024 * 1024

	// uploadReadTimeout bounds each read so a silently dropped client
	// connection is detected instead of holding the staged file open.
	uploadReadTimeout = 30 * time.Second
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// ingestService implements the IngestService interface.
// Uploads are streamed to a staging directory; the heavy pipeline
// (extraction, chunking, embedding) runs as a background task.
type ingestService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	taskQueue     driven.TaskQueue
	versions      *versionManager
	cache         *SearchCache
	stagingDir    string
	logger        *slog.Logger

	maxSize     int64
	readTimeout time.Duration
}

// NewIngestService creates a new IngestService. stagingDir is where
// uploads are spooled before the pipeline picks them up.
func NewIngestService(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	taskQueue driven.TaskQueue,
	lock driven.DistributedLock,
	cache *SearchCache,
	stagingDir string,
	logger *slog.Logger,
) driving.IngestService {
	return &ingestService{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		taskQueue:     taskQueue,
		versions:      newVersionManager(documentStore, lock),
		cache:         cache,
		stagingDir:    stagingDir,
		logger:        logger.With("service", "ingest"),
		maxSize:       maxUploadSize,
		readTimeout:   uploadReadTimeout,
	}
}

// supportedExtensions are the formats the text extractors can handle.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Upload streams the file to staging, resolves the version decision and
// enqueues the ingestion job for new content. It returns as soon as the
// document row is committed; chunking and embedding happen in the worker.
func (s *ingestService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*domain.UploadResult, error) {
	if filename == "" {
		return nil, domain.ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, ext)
	}

	stagedPath, contentHash, size, err := s.stage(ctx, filename, r)
	if err != nil {
		return nil, err
	}

	decision, err := s.versions.Resolve(ctx, filename, contentHash, size)
	if err != nil {
		s.removeStaged(stagedPath)
		return nil, err
	}

	doc := decision.Document
	switch decision.Status {
	case domain.UploadStatusNoChange:
		s.removeStaged(stagedPath)
		return &domain.UploadResult{
			Status:     domain.UploadStatusNoChange,
			Message:    fmt.Sprintf("File %q content unchanged. Current version: %d", filename, doc.Version),
			DocumentID: doc.ID,
			Version:    doc.Version,
		}, nil

	case domain.UploadStatusDuplicate:
		s.removeStaged(stagedPath)
		return &domain.UploadResult{
			Status:     domain.UploadStatusDuplicate,
			Message:    fmt.Sprintf("This content already exists as %q. Same content with a different filename is treated as duplicate.", doc.Filename),
			DocumentID: doc.ID,
			Version:    doc.Version,
		}, nil
	}

	// New content was committed; stale cached results must not survive it.
	s.cache.InvalidateAll()

	task := domain.NewIngestTask(doc.ID, stagedPath, filename)
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		s.removeStaged(stagedPath)
		return nil, fmt.Errorf("enqueue ingest task: %w", err)
	}

	msg := "Document uploaded successfully. Processing in background."
	if decision.Status == domain.UploadStatusNewVersion {
		msg = fmt.Sprintf("Document updated to version %d. Previous version archived.", doc.Version)
	}

	s.logger.Info("upload accepted",
		"filename", filename,
		"document_id", doc.ID,
		"version", doc.Version,
		"status", string(decision.Status),
		"size", size)

	return &domain.UploadResult{
		Status:     decision.Status,
		Message:    msg,
		DocumentID: doc.ID,
		Version:    doc.Version,
		JobID:      task.ID,
	}, nil
}

// stage copies the upload body to a temp file in bounded reads, hashing as
// it goes. The staged file is removed on every error path.
func (s *ingestService) stage(ctx context.Context, filename string, r io.Reader) (path, contentHash string, size int64, err error) {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("create staging dir: %w", err)
	}

	path = filepath.Join(s.stagingDir, domain.GenerateID()+"_"+filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", "", 0, fmt.Errorf("create staged file: %w", err)
	}

	hasher := sha256.New()
	buf := make([]byte, uploadReadSize)

	cleanup := func(cause error) (string, string, int64, error) {
		_ = f.Close()
		s.removeStaged(path)
		return "", "", 0, cause
	}

	for {
		n, readErr := readWithTimeout(ctx, r, buf, s.readTimeout)
		if n > 0 {
			size += int64(n)
			if size > s.maxSize {
				return cleanup(fmt.Errorf("%w: limit %d bytes", domain.ErrFileTooLarge, s.maxSize))
			}
			if _, werr := f.Write(buf[:n]); werr != nil {
				return cleanup(fmt.Errorf("write staged file: %w", werr))
			}
			hasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return cleanup(readErr)
		}
	}

	if err := f.Close(); err != nil {
		s.removeStaged(path)
		return "", "", 0, fmt.Errorf("close staged file: %w", err)
	}

	return path, hex.EncodeToString(hasher.Sum(nil)), size, nil
}

// readWithTimeout performs one read, bounded by uploadReadTimeout and the
// request context. A timeout means the client stalled mid-upload.
func readWithTimeout(ctx context.Context, r io.Reader, buf []byte, timeout time.Duration) (int, error) {
	type readResult struct {
		n   int
		err error
	}
	done := make(chan readResult, 1)
	go func() {
		n, err := r.Read(buf)
		done <- readResult{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		return 0, domain.ErrUploadStalled
	}
}

func (s *ingestService) removeStaged(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove staged file", "path", path, "error", err)
	}
}

// List returns documents with their chunk counts, newest first.
func (s *ingestService) List(ctx context.Context, limit, offset int) ([]*domain.DocumentInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	docs, err := s.documentStore.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	infos := make([]*domain.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		count, err := s.chunkStore.CountByDocument(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, &domain.DocumentInfo{
			ID:         doc.ID,
			Filename:   doc.Filename,
			FileSize:   doc.FileSize,
			Version:    doc.Version,
			IsActive:   doc.IsActive,
			UploadedAt: doc.UploadedAt,
			ChunkCount: count,
		})
	}
	return infos, nil
}

// Get returns a single document by ID.
func (s *ingestService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// Delete hard-deletes a document and its chunks and invalidates the cache.
func (s *ingestService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}
	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	s.logger.Info("document deleted", "document_id", id)
	return nil
}

// Stats returns corpus-wide document and chunk totals.
func (s *ingestService) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	docs, err := s.documentStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := s.chunkStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &domain.CorpusStats{
		Documents: docs,
		Chunks:    chunks,
	}, nil
}
