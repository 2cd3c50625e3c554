package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven/mocks"
)

func TestJobService_Status(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	svc := NewJobService(queue)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged", "notes.txt")
	_ = queue.Enqueue(ctx, task)

	status, err := svc.Status(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != domain.JobStateQueued {
		t.Errorf("expected queued, got %s", status.State)
	}

	dequeued, _ := queue.Dequeue(ctx)
	_ = queue.UpdateProgress(ctx, dequeued.ID, domain.StepGeneratingEmbeddings, 50)

	status, _ = svc.Status(ctx, task.ID)
	if status.State != domain.JobStateRunning {
		t.Errorf("expected running, got %s", status.State)
	}
	if status.Progress == nil || status.Progress.Percent != 50 {
		t.Errorf("expected progress 50, got %+v", status.Progress)
	}

	_ = queue.Ack(ctx, task.ID, &domain.IngestResult{DocumentID: "doc-1", ChunksCreated: 4})

	status, _ = svc.Status(ctx, task.ID)
	if status.State != domain.JobStateSucceeded {
		t.Errorf("expected succeeded, got %s", status.State)
	}
	if status.Result == nil || status.Result.ChunksCreated != 4 {
		t.Errorf("expected terminal result, got %+v", status.Result)
	}
}

func TestJobService_FailedJob(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	svc := NewJobService(queue)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged", "notes.txt")
	task.MaxAttempts = 1
	_ = queue.Enqueue(ctx, task)
	dequeued, _ := queue.Dequeue(ctx)
	_ = queue.Nack(ctx, dequeued.ID, "extraction failed")

	status, err := svc.Status(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != domain.JobStateFailed {
		t.Errorf("expected failed, got %s", status.State)
	}
	if status.Error != "extraction failed" {
		t.Errorf("expected failure reason, got %q", status.Error)
	}
}

func TestJobService_UnknownJob(t *testing.T) {
	svc := NewJobService(mocks.NewMockTaskQueue())

	if _, err := svc.Status(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Status(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
