package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIngestDocument runs the ingestion pipeline for an uploaded document
	TaskTypeIngestDocument TaskType = "ingest_document"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Ingestion pipeline step names, reported as task progress.
const (
	StepExtractingText       = "extracting_text"
	StepChunkingWithMetadata = "chunking_with_metadata"
	StepGeneratingEmbeddings = "generating_embeddings"
	StepSavingToDatabase     = "saving_to_database"
	StepComplete             = "complete"
)

// Progress reports where a running task is in its pipeline.
type Progress struct {
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// IngestResult is the terminal payload of a successful ingestion task.
type IngestResult struct {
	DocumentID          string   `json:"document_id"`
	ChunksCreated       int      `json:"chunks_created"`
	TotalEntities       int      `json:"total_entities_extracted"`
	AverageRecencyScore float64  `json:"average_recency_score"`
	DataTypesFound      []string `json:"data_types_found"`
}

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// Payload contains task-specific data.
	// For ingest_document: {"document_id": ..., "file_path": ..., "filename": ...}
	Payload map[string]string `json:"payload"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Progress is set while the task is processing
	Progress *Progress `json:"progress,omitempty"`

	// Result is the terminal payload of a completed ingestion task
	Result *IngestResult `json:"result,omitempty"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	// CreatedAt is when the task was enqueued
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last modified
	UpdatedAt time.Time `json:"updated_at"`

	// StartedAt is when processing began (nil if not started)
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when processing finished (nil if not complete)
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for delayed retries)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		Attempts:     0,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewIngestTask creates a task to run the ingestion pipeline for a document.
// filePath is the staged upload artifact the pipeline reads from.
func NewIngestTask(documentID, filePath, filename string) *Task {
	return NewTask(TaskTypeIngestDocument, map[string]string{
		"document_id": documentID,
		"file_path":   filePath,
		"filename":    filename,
	})
}

// DocumentID extracts the document_id from the payload.
func (t *Task) DocumentID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["document_id"]
}

// FilePath extracts the staged file path from the payload.
func (t *Task) FilePath() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["file_path"]
}

// Filename extracts the original filename from the payload.
func (t *Task) Filename() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["filename"]
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted(result *IngestResult) {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Result = result
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.UpdatedAt = now
	t.Error = err
}

// SetProgress records the current pipeline step.
func (t *Task) SetProgress(step string, percent int) {
	t.Progress = &Progress{Step: step, Percent: percent}
	t.UpdatedAt = time.Now()
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err
	t.Progress = nil

	// Exponential backoff: 1s, 2s, 4s, 8s, etc.
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute // Cap at 5 minutes
	}
	t.ScheduledFor = now.Add(backoff)
}

// JobState is the external view of a task's lifecycle.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// JobStatus is the poll response for a background job.
type JobStatus struct {
	JobID    string        `json:"job_id"`
	State    JobState      `json:"state"`
	Progress *Progress     `json:"progress,omitempty"`
	Result   *IngestResult `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// JobStatusFromTask maps a queue task onto the external job states.
func JobStatusFromTask(t *Task) *JobStatus {
	status := &JobStatus{JobID: t.ID}
	switch t.Status {
	case TaskStatusProcessing:
		status.State = JobStateRunning
		status.Progress = t.Progress
	case TaskStatusCompleted:
		status.State = JobStateSucceeded
		status.Result = t.Result
	case TaskStatusFailed:
		status.State = JobStateFailed
		status.Error = t.Error
	default:
		// Pending tasks awaiting a retry slot are still queued externally.
		status.State = JobStateQueued
	}
	return status
}
