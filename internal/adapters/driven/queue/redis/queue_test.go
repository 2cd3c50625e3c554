package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

func setupTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(client, "worker-test")
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}
	return q
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged_report.pdf", "report.pdf")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID {
		t.Errorf("dequeued wrong task: %s", got.ID)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}

	result := &domain.IngestResult{DocumentID: "doc-1", ChunksCreated: 4}
	if err := q.Ack(ctx, task.ID, result); err != nil {
		t.Fatalf("ack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if stored.Result == nil || stored.Result.ChunksCreated != 4 {
		t.Errorf("result not recorded: %+v", stored.Result)
	}
}

func TestQueue_NackSchedulesRetryWithBackoff(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged_report.pdf", "report.pdf")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "embedding provider unreachable"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	if stored.Error != "embedding provider unreachable" {
		t.Errorf("error = %q", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("retry should be scheduled in the future")
	}

	// Backoff has not elapsed yet, so nothing is ready.
	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != nil {
		t.Errorf("task dequeued before its backoff elapsed: %+v", got)
	}
}

func TestQueue_NackExhaustedMarksFailed(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged_report.pdf", "report.pdf")
	task.MaxAttempts = 1
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	if err := q.Nack(ctx, task.ID, "corrupt file"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.Error != "corrupt file" {
		t.Errorf("error = %q", stored.Error)
	}
}

func TestQueue_ScheduledTaskPromotedWhenDue(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged_report.pdf", "report.pdf")
	// Promotion works on unix-second scores, so schedule a full second out.
	task.ScheduledFor = time.Now().Truncate(time.Second).Add(2 * time.Second)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != nil {
		t.Fatal("scheduled task should not be delivered early")
	}

	time.Sleep(time.Until(task.ScheduledFor.Add(100 * time.Millisecond)))

	got, err = q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("expected promoted task, got %+v", got)
	}
}

func TestQueue_UpdateProgress(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "/tmp/staged_report.pdf", "report.pdf")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	if err := q.UpdateProgress(ctx, task.ID, domain.StepGeneratingEmbeddings, 50); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Progress == nil {
		t.Fatal("expected progress on the task")
	}
	if stored.Progress.Step != domain.StepGeneratingEmbeddings || stored.Progress.Percent != 50 {
		t.Errorf("progress = %+v", stored.Progress)
	}
}

func TestQueue_UpdateProgressUnknownTask(t *testing.T) {
	q := setupTestQueue(t)

	err := q.UpdateProgress(context.Background(), "missing", domain.StepExtractingText, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueue_GetTaskNotFound(t *testing.T) {
	q := setupTestQueue(t)

	_, err := q.GetTask(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueue_NewQueueIdempotentGroupCreation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := NewQueue(client, "worker-a"); err != nil {
		t.Fatalf("first queue: %v", err)
	}
	// Second instance against the same stream must tolerate BUSYGROUP.
	if _, err := NewQueue(client, "worker-b"); err != nil {
		t.Fatalf("second queue: %v", err)
	}
}
