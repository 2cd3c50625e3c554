package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/corpus-core/internal/chunking"
	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// targetEmbeddingDim is the stored vector width. Providers with smaller
// native dimensions are zero-padded up to it so local and remote
// embeddings share one index.
const targetEmbeddingDim = 1536

// IngestPipeline turns a staged upload into active, searchable chunks.
// It runs inside the worker; progress checkpoints are reported through
// the task queue so job polling can show where a run is.
type IngestPipeline struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	taskQueue     driven.TaskQueue
	extractor     driven.TextExtractor
	provider      driven.AIProvider
	cache         *SearchCache
	logger        *slog.Logger
}

// NewIngestPipeline creates a new IngestPipeline.
func NewIngestPipeline(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	taskQueue driven.TaskQueue,
	extractor driven.TextExtractor,
	provider driven.AIProvider,
	cache *SearchCache,
	logger *slog.Logger,
) *IngestPipeline {
	return &IngestPipeline{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		taskQueue:     taskQueue,
		extractor:     extractor,
		provider:      provider,
		cache:         cache,
		logger:        logger.With("service", "pipeline"),
	}
}

// Process runs the full ingestion for one task: extract, chunk, embed,
// persist. Chunk persistence is a single transaction, so a failure at any
// step leaves no partial chunk state active and the task can be retried.
// The staged file is removed only on success; terminal cleanup after
// exhausted retries is the worker's job.
func (p *IngestPipeline) Process(ctx context.Context, task *domain.Task) (*domain.IngestResult, error) {
	documentID := task.DocumentID()
	filePath := task.FilePath()
	filename := task.Filename()

	log := p.logger.With("task_id", task.ID, "document_id", documentID, "filename", filename)

	p.progress(ctx, task.ID, domain.StepExtractingText, 10)
	text, err := p.extractor.ExtractText(ctx, filePath, filename)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	doc, err := p.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := p.documentStore.SetRawContent(ctx, documentID, text); err != nil {
		return nil, fmt.Errorf("store raw content: %w", err)
	}

	p.progress(ctx, task.ID, domain.StepChunkingWithMetadata, 30)
	docRef := &domain.DocumentRef{
		DocumentID: doc.ID,
		Filename:   filename,
		UploadedAt: doc.UploadedAt,
		FileType:   fileType(filename),
	}
	payloads := chunking.SplitEnhanced(text, docRef, chunking.DefaultChunkSize, chunking.DefaultOverlap)

	p.progress(ctx, task.ID, domain.StepGeneratingEmbeddings, 50)
	texts := make([]string, len(payloads))
	for i, payload := range payloads {
		texts[i] = payload.Text
	}
	embeddings, err := p.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(embeddings) != len(payloads) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(payloads), len(embeddings))
	}

	p.progress(ctx, task.ID, domain.StepSavingToDatabase, 80)
	now := time.Now()
	chunks := make([]*domain.Chunk, len(payloads))
	for i, payload := range payloads {
		chunks[i] = &domain.Chunk{
			ID:           domain.GenerateID(),
			DocumentID:   doc.ID,
			Text:         payload.Text,
			ChunkIndex:   payload.Metadata.ChunkIndex,
			Embedding:    normalizeDimension(embeddings[i], targetEmbeddingDim),
			Metadata:     payload.Metadata,
			RecencyScore: payload.Metadata.Temporal.RecencyScore,
			Version:      doc.Version,
			IsActive:     true,
			CreatedAt:    now,
		}
	}
	if err := p.chunkStore.SaveBatch(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	// New chunks are live; cached result sets are stale from here on.
	p.cache.InvalidateAll()

	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove staged file", "path", filePath, "error", err)
	}

	p.progress(ctx, task.ID, domain.StepComplete, 100)

	result := buildIngestResult(doc.ID, payloads)
	log.Info("document processed",
		"chunks", result.ChunksCreated,
		"entities", result.TotalEntities,
		"avg_recency", result.AverageRecencyScore)
	return result, nil
}

// progress reporting is best-effort; a failed update never fails the run.
func (p *IngestPipeline) progress(ctx context.Context, taskID, step string, percent int) {
	if err := p.taskQueue.UpdateProgress(ctx, taskID, step, percent); err != nil {
		p.logger.Warn("failed to report progress", "task_id", taskID, "step", step, "error", err)
	}
}

// buildIngestResult aggregates statistics over the processed chunks.
// Entity totals count ids, names and amounts; data types are deduplicated.
func buildIngestResult(documentID string, payloads []domain.ChunkPayload) *domain.IngestResult {
	totalEntities := 0
	recencySum := 0.0
	typeSet := make(map[string]bool)
	for _, payload := range payloads {
		entities := payload.Metadata.Entities
		totalEntities += len(entities.IDs) + len(entities.Names) + len(entities.Amounts)
		recencySum += payload.Metadata.Temporal.RecencyScore
		for _, dt := range payload.Metadata.DataTypes {
			typeSet[dt] = true
		}
	}

	avgRecency := 0.0
	if len(payloads) > 0 {
		avgRecency = math.Round(recencySum/float64(len(payloads))*100) / 100
	}

	dataTypes := make([]string, 0, len(typeSet))
	for dt := range typeSet {
		dataTypes = append(dataTypes, dt)
	}

	return &domain.IngestResult{
		DocumentID:          documentID,
		ChunksCreated:       len(payloads),
		TotalEntities:       totalEntities,
		AverageRecencyScore: avgRecency,
		DataTypesFound:      dataTypes,
	}
}

// normalizeDimension pads short vectors with zeros and truncates long ones
// so every stored embedding has the same width.
func normalizeDimension(embedding []float32, target int) []float32 {
	switch {
	case len(embedding) == target:
		return embedding
	case len(embedding) < target:
		padded := make([]float32, target)
		copy(padded, embedding)
		return padded
	default:
		return embedding[:target]
	}
}

func fileType(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(ext)
}
