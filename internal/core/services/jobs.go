package services

import (
	"context"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

// Ensure jobService implements JobService
var _ driving.JobService = (*jobService)(nil)

// jobService exposes background task state in the external job shape.
type jobService struct {
	taskQueue driven.TaskQueue
}

// NewJobService creates a new JobService.
func NewJobService(taskQueue driven.TaskQueue) driving.JobService {
	return &jobService{taskQueue: taskQueue}
}

// Status reports the job's current state, progress or terminal payload.
func (s *jobService) Status(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidInput
	}
	task, err := s.taskQueue.GetTask(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return domain.JobStatusFromTask(task), nil
}
