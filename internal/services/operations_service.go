package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "filmstats/internal/errors"
	"filmstats/internal/operations"
)

// RunRequest asks for a pipeline run. An empty step list runs every step.
type RunRequest struct {
	Steps []string `json:"steps" validate:"omitempty,dive,oneof=load clean aggregate analyze report"`
}

// OperationService starts pipeline runs in the background and reports on
// them
type OperationService struct {
	manager *operations.Manager
	queue   *operations.JobQueue
	logger  *slog.Logger
}

// NewOperationService creates an operation service over a started job queue
func NewOperationService(manager *operations.Manager, queue *operations.JobQueue, logger *slog.Logger) *OperationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationService{
		manager: manager,
		queue:   queue,
		logger:  logger.With(slog.String("service", "operations")),
	}
}

// StartPipeline queues a run of the requested steps
func (s *OperationService) StartPipeline(ctx context.Context, req RunRequest) (*operations.Job, error) {
	job, err := s.queue.Submit(ctx, req.Steps)
	if err != nil {
		switch {
		case errors.Is(err, operations.ErrQueueFull):
			return nil, ErrServiceUnavailable
		case errors.Is(err, operations.ErrStepNotFound):
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "pipeline run queued",
		slog.String("job_id", job.ID),
		slog.String("operation_id", job.OperationID),
		slog.Any("steps", req.Steps))
	return job, nil
}

// GetJob returns a queued or finished run
func (s *OperationService) GetJob(id string) (*operations.Job, error) {
	job, err := s.queue.GetJob(id)
	if errors.Is(err, operations.ErrJobNotFound) {
		return nil, apperrors.NewNotFoundError("job " + id)
	}
	return job, err
}

// ListJobs returns the most recent runs, newest first
func (s *OperationService) ListJobs(limit int) ([]*operations.Job, error) {
	return s.queue.ListJobs(operations.JobFilter{Limit: limit})
}

// CancelJob cancels a pending or running job
func (s *OperationService) CancelJob(id string) error {
	if _, err := s.GetJob(id); err != nil {
		return err
	}
	err := s.queue.CancelJob(id)
	if errors.Is(err, operations.ErrJobFinished) {
		return apperrors.New(http.StatusConflict, "JOB_FINISHED", err.Error())
	}
	return err
}

// Snapshot returns the live progress snapshot of a run
func (s *OperationService) Snapshot(operationID string) (*operations.OperationSnapshot, error) {
	snapshot, ok := s.manager.GetBroadcaster().GetSnapshot(operationID)
	if !ok {
		return nil, apperrors.NewNotFoundError("operation " + operationID)
	}
	return snapshot, nil
}

// Steps lists the registered pipeline steps in dependency order
func (s *OperationService) Steps() []string {
	steps, err := s.manager.GetRegistry().Resolve(nil)
	if err != nil {
		return nil
	}
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID()
	}
	return ids
}

// QueueStats reports the job queue occupancy
func (s *OperationService) QueueStats() map[string]interface{} {
	return s.queue.GetQueueStats()
}
