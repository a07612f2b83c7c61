package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"filmstats/internal/infrastructure"
	"filmstats/pkg/contracts/domain"
)

// Manager orchestrates pipeline runs. One run executes at a time.
type Manager struct {
	registry    *Registry
	config      *Config
	broadcaster *StatusBroadcaster
	tracer      *OperationTracer
	sink        ResultSink
	logger      *slog.Logger

	runMu sync.Mutex

	mu         sync.RWMutex
	operations map[string]*OperationState
	cancels    map[string]context.CancelFunc
}

// NewManager creates a pipeline manager. hub may be nil.
func NewManager(hub WebSocketHub, registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry:    registry,
		config:      config,
		broadcaster: NewStatusBroadcaster(hub, logger),
		tracer:      NewOperationTracer(nil, nil),
		logger:      logger.With(slog.String("component", "pipeline")),
		operations:  make(map[string]*OperationState),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// SetTracer replaces the tracer used for spans and metrics
func (m *Manager) SetTracer(tracer *OperationTracer) {
	if tracer != nil {
		m.tracer = tracer
	}
}

// SetResultSink sets where successful runs publish their results
func (m *Manager) SetResultSink(sink ResultSink) {
	m.sink = sink
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetBroadcaster returns the status broadcaster
func (m *Manager) GetBroadcaster() *StatusBroadcaster {
	return m.broadcaster
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the requested steps in dependency order. A step whose
// upstream step is not part of the request reads the upstream outputs from
// disk.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if !m.runMu.TryLock() {
		return nil, ErrOperationRunning
	}
	defer m.runMu.Unlock()

	if req.ID == "" {
		req.ID = infrastructure.NewRunID()
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)

	steps, err := m.registry.Resolve(req.Steps)
	if err != nil {
		m.logRunError(ctx, req.ID, err)
		return nil, NewFatalError("cannot resolve pipeline steps", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := NewOperationState(req.ID)
	m.storeOperation(state, cancel)
	defer m.removeOperation(req.ID)

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}
	m.broadcaster.CreateOperation(req.ID, steps)

	ctx, span := m.tracer.TraceOperation(ctx, req.ID, steps)
	m.logRunStart(ctx, req.ID, steps)

	state.Start()
	m.broadcaster.StartOperation(req.ID)

	runErr := m.executeSequential(ctx, state, steps)

	switch {
	case runErr != nil && ctx.Err() != nil:
		state.Cancel()
		m.broadcaster.CancelOperation(req.ID)
	case runErr != nil:
		state.Fail(runErr)
		m.broadcaster.FailOperation(req.ID, runErr)
	default:
		state.Complete()
		m.broadcaster.CompleteOperation(req.ID, "Pipeline completed successfully")
		m.publish(state)
	}

	resp := m.createResponse(state)
	if m.config.ManifestPath != "" {
		outputs, err := m.writeManifest(state, steps)
		if err != nil {
			m.logger.WarnContext(ctx, "run manifest not written",
				slog.String("path", m.config.ManifestPath),
				slog.String("error", err.Error()))
		}
		resp.Outputs = outputs
	}

	m.tracer.RecordOperationCompletion(ctx, span, state.Duration(), runErr)
	m.logRunComplete(ctx, req.ID, state.Duration(), state.GetStatus())
	return resp, runErr
}

// executeSequential executes steps one by one. After a failure, dependents
// of the failed step are skipped; without ContinueOnError every remaining
// step is skipped.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error
	for i, step := range steps {
		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			continue
		}

		if ctx.Err() != nil {
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		err := m.executeStep(ctx, state, step)
		if err == nil {
			continue
		}

		m.logStepError(ctx, step.ID(), err)
		m.skipDependentStages(state, steps, step.ID())
		if firstErr == nil {
			firstErr = err
		}
		if !m.config.ContinueOnError || ctx.Err() != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return err
		}
	}
	return firstErr
}

// executeStep runs a single Step with dependency checks, validation,
// timeout and retries
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		m.broadcaster.SkipStep(state.ID, step.ID(), err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err)
		stepState.Fail(verr)
		m.broadcaster.FailStep(state.ID, step.ID(), verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()
		m.broadcaster.UpdateStepProgress(state.ID, step.ID(), 0, "Step started")
		m.logStepStart(ctx, step.ID(), attempt)

		spanCtx, span := m.tracer.TraceStep(stepCtx, state.ID, step.ID(), attempt)
		start := time.Now()
		err := step.Execute(spanCtx, state)
		duration := time.Since(start)
		m.tracer.RecordStepCompletion(spanCtx, span, step.ID(), duration, err)

		if err == nil {
			stepState.Complete()
			m.broadcaster.CompleteStep(state.ID, step.ID(), "Step completed", stepState.MetadataCopy())
			m.logStepComplete(ctx, step.ID(), duration)
			return nil
		}
		lastErr = err

		switch {
		case errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			terr := NewTimeoutError(step.ID(), timeout.String())
			stepState.Fail(terr)
			m.broadcaster.FailStep(state.ID, step.ID(), terr)
			return terr
		case ctx.Err() != nil:
			cerr := NewCancellationError(step.ID())
			stepState.Fail(cerr)
			m.broadcaster.FailStep(state.ID, step.ID(), cerr)
			return cerr
		case !IsRetryable(err) || attempt >= retry.MaxAttempts:
			wrapped := WrapError(err, step.ID(), "step execution failed")
			stepState.Fail(wrapped)
			m.broadcaster.FailStep(state.ID, step.ID(), wrapped)
			return wrapped
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "retrying step",
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-stepCtx.Done():
			cerr := NewCancellationError(step.ID())
			stepState.Fail(cerr)
			m.broadcaster.FailStep(state.ID, step.ID(), cerr)
			return cerr
		}
	}

	wrapped := WrapError(lastErr, step.ID(), "step execution failed after retries")
	stepState.Fail(wrapped)
	return wrapped
}

// skipDependentStages marks steps that depend on the failed Step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				reason := fmt.Sprintf("dependency %s failed", failedID)
				stepState.Skip(reason)
				m.broadcaster.SkipStep(state.ID, step.ID(), reason)
				m.skipDependentStages(state, steps, step.ID())
			}
			break
		}
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
			m.broadcaster.SkipStep(state.ID, step.ID(), reason)
		}
	}
}

// checkDependencies verifies that dependencies taking part in this run
// have completed. Dependencies outside the run are satisfied from disk.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay grows the delay geometrically up to MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// publish hands the run's results to the sink
func (m *Manager) publish(state *OperationState) {
	if m.sink == nil {
		return
	}
	aggs, ok := contextValue[[]domain.MovieAggregate](state, ContextKeyAggregates)
	if !ok {
		return
	}
	summary, _ := contextValue[domain.AggregateSummary](state, ContextKeySummary)
	analysis, _ := contextValue[*domain.Analysis](state, ContextKeyAnalysis)
	m.sink.Publish(aggs, summary, analysis)
}

func (m *Manager) writeManifest(state *OperationState, steps []Step) ([]OutputFile, error) {
	manifest := NewRunManifest(state, steps)
	if err := manifest.AddOutputs(state.Outputs()); err != nil {
		return nil, err
	}
	if err := manifest.SaveToFile(m.config.ManifestPath); err != nil {
		return manifest.Outputs, err
	}
	return manifest.Outputs, nil
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	snapshot := state.Clone()
	resp := &OperationResponse{
		ID:       snapshot.ID,
		Status:   snapshot.Status,
		Duration: snapshot.Duration(),
		Steps:    snapshot.Steps,
	}
	if snapshot.Error != nil {
		resp.Error = snapshot.Error.Error()
	}
	return resp
}

// GetOperation retrieves the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, ErrOperationNotFound
	}
	return state.Clone(), nil
}

// ListOperations returns all active operations
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		operations = append(operations, state.Clone())
	}
	return operations
}

// CancelOperation cancels a running operation
func (m *Manager) CancelOperation(id string) error {
	m.mu.RLock()
	cancel, exists := m.cancels[id]
	m.mu.RUnlock()

	if !exists {
		return ErrOperationNotFound
	}
	cancel()
	return nil
}

func (m *Manager) storeOperation(state *OperationState, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
	m.cancels[state.ID] = cancel
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
	delete(m.cancels, id)
}

// Shutdown stops the status broadcaster
func (m *Manager) Shutdown() {
	m.broadcaster.Stop()
}
