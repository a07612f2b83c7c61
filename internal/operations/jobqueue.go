package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is a pipeline run requested through the API and executed in the
// background
type Job struct {
	ID          string                 `json:"id"`
	OperationID string                 `json:"operation_id"`
	Steps       []string               `json:"steps,omitempty"`
	Status      JobStatus              `json:"status"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Response    *OperationResponse     `json:"response,omitempty"`
}

// MetadataRequestID is the job metadata key carrying the HTTP request ID
const MetadataRequestID = "request_id"

// ErrQueueFull is returned when no more jobs can be buffered
var ErrQueueFull = errors.New("job queue is full")

// ErrJobFinished is returned when cancelling a job that already ended
var ErrJobFinished = errors.New("job already finished")

// JobStore persists jobs
type JobStore interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	// CleanupOldJobs drops jobs finished more than olderThan ago
	CleanupOldJobs(olderThan time.Duration) int
	// GetStats counts stored jobs by status
	GetStats() map[string]int
}

// JobFilter for querying jobs
type JobFilter struct {
	Status JobStatus
	Since  time.Time
	Limit  int
}

// JobQueue runs queued pipeline jobs one at a time
type JobQueue struct {
	mu       sync.RWMutex
	jobs     chan *Job
	wg       sync.WaitGroup
	store    JobStore
	manager  *Manager
	logger   *slog.Logger
	shutdown chan struct{}
	stopOnce sync.Once
	active   map[string]*Job
}

// NewJobQueue creates a job queue buffering up to size jobs
func NewJobQueue(size int, store JobStore, manager *Manager, logger *slog.Logger) *JobQueue {
	if size <= 0 {
		size = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobQueue{
		jobs:     make(chan *Job, size),
		store:    store,
		manager:  manager,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		active:   make(map[string]*Job),
	}
}

// Start begins processing jobs. The manager executes one run at a time, so
// a single worker drains the queue.
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("capacity", cap(q.jobs)))
	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop gracefully shuts down the job queue
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	q.stopOnce.Do(func() { close(q.shutdown) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for pipeline job to finish")
	}
}

// Submit creates a job for steps and queues it
func (q *JobQueue) Submit(ctx context.Context, steps []string) (*Job, error) {
	if _, err := q.manager.GetRegistry().Resolve(steps); err != nil {
		return nil, err
	}

	job := &Job{
		ID:          uuid.NewString(),
		OperationID: uuid.NewString(),
		Steps:       steps,
		Metadata:    map[string]interface{}{},
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		job.Metadata[MetadataRequestID] = reqID
	}
	if err := q.Enqueue(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Enqueue adds a job to the queue
func (q *JobQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	job.CreatedAt = time.Now()
	job.Message = "Waiting for the pipeline"

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("operation_id", job.OperationID),
			slog.Any("steps", job.Steps))
		return nil
	default:
		job.Status = JobStatusFailed
		job.Error = ErrQueueFull.Error()
		if err := q.store.UpdateJob(job); err != nil {
			q.logger.Error("failed to update rejected job", slog.String("error", err.Error()))
		}
		return ErrQueueFull
	}
}

// GetJob returns a copy of a job as last stored
func (q *JobQueue) GetJob(id string) (*Job, error) {
	return q.store.GetJob(id)
}

// CancelJob cancels a pending job or the run of a running one
func (q *JobQueue) CancelJob(id string) error {
	job, err := q.GetJob(id)
	if err != nil {
		return err
	}

	switch job.Status {
	case JobStatusPending:
		job.Status = JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		return q.store.UpdateJob(job)
	case JobStatusRunning:
		return q.manager.CancelOperation(job.OperationID)
	default:
		return fmt.Errorf("%w: job %s is %s", ErrJobFinished, id, job.Status)
	}
}

// ListJobs returns jobs matching the filter
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

func (q *JobQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			q.logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			q.logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job)
		}
	}
}

// processJob executes a single job
func (q *JobQueue) processJob(ctx context.Context, job *Job) {
	if current, err := q.store.GetJob(job.ID); err == nil && current.Status == JobStatusCancelled {
		return
	}

	if reqID, ok := job.Metadata[MetadataRequestID].(string); ok {
		ctx = context.WithValue(ctx, middleware.RequestIDKey, reqID)
	}

	logger := q.logger.With(
		slog.String("job_id", job.ID),
		slog.String("operation_id", job.OperationID),
	)
	logger.InfoContext(ctx, "processing job started")

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job processing panicked", slog.Any("panic", r))
			q.finish(job, JobStatusFailed, "Internal error occurred", fmt.Errorf("job processing panicked: %v", r))
		}
		q.mu.Lock()
		delete(q.active, job.ID)
		q.mu.Unlock()
	}()

	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Message = "Pipeline running"
	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job status", slog.String("error", err.Error()))
	}

	resp, err := q.manager.Execute(ctx, OperationRequest{ID: job.OperationID, Steps: job.Steps})
	job.Response = resp

	switch {
	case err == nil:
		q.finish(job, JobStatusCompleted, "Pipeline completed", nil)
		logger.InfoContext(ctx, "processing job completed")
	case resp != nil && resp.Status == OperationStatusCancelled:
		q.finish(job, JobStatusCancelled, "Pipeline cancelled", err)
	default:
		logger.ErrorContext(ctx, "job failed", slog.String("error", err.Error()))
		q.finish(job, JobStatusFailed, "Pipeline failed", err)
	}
}

func (q *JobQueue) finish(job *Job, status JobStatus, message string, err error) {
	job.Status = status
	job.Message = message
	if err != nil {
		job.Error = err.Error()
	}
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if uerr := q.store.UpdateJob(job); uerr != nil {
		q.logger.Error("failed to update job", slog.String("job_id", job.ID), slog.String("error", uerr.Error()))
	}
}

// CleanupFinished drops finished jobs older than retention from the store
func (q *JobQueue) CleanupFinished(retention time.Duration) int {
	removed := q.store.CleanupOldJobs(retention)
	if removed > 0 {
		q.logger.Info("finished jobs removed",
			slog.Int("removed", removed),
			slog.Duration("retention", retention))
	}
	return removed
}

// GetQueueStats returns queue statistics and the stored job counts
func (q *JobQueue) GetQueueStats() map[string]interface{} {
	q.mu.RLock()
	activeCount := len(q.active)
	q.mu.RUnlock()

	return map[string]interface{}{
		"queue_size":  len(q.jobs),
		"queue_cap":   cap(q.jobs),
		"active_jobs": activeCount,
		"jobs":        q.store.GetStats(),
	}
}
