package app

import (
	"context"
	"fmt"
	"log/slog"

	"filmstats/internal/config"
	"filmstats/internal/infrastructure"
	"filmstats/internal/operations"
)

// Pipeline bundles the manager and its registered steps. The CLI runs it in
// the foreground; the server runs it through the job queue.
type Pipeline struct {
	Manager *operations.Manager
	Metrics *infrastructure.PipelineMetrics
	paths   *config.Paths
	logger  *slog.Logger
}

// NewPipeline registers every step over paths. hub may be nil; telemetry may
// be nil to run without spans and metrics.
func NewPipeline(cfg *config.Config, paths *config.Paths, hub operations.WebSocketHub, telemetry *infrastructure.TelemetryProviders, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var tracer *operations.OperationTracer
	var metrics *infrastructure.PipelineMetrics
	if telemetry != nil {
		m, err := infrastructure.CreatePipelineMetrics(telemetry.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		metrics = m
		tracer = operations.NewOperationTracer(telemetry.Tracer, metrics)
	}

	registry := operations.NewRegistry()
	manager := operations.NewManager(hub, registry,
		operations.NewConfigBuilder().WithManifest(paths.ManifestJSON).Build(),
		logger)
	manager.SetTracer(tracer)

	opts := &operations.StageOptions{
		Paths:       paths,
		Settings:    cfg,
		Tracer:      tracer,
		Broadcaster: manager.GetBroadcaster(),
	}
	if err := operations.RegisterStages(registry, logger, opts); err != nil {
		return nil, fmt.Errorf("failed to register pipeline steps: %w", err)
	}

	return &Pipeline{
		Manager: manager,
		Metrics: metrics,
		paths:   paths,
		logger:  logger,
	}, nil
}

// Run executes steps in the foreground. No steps means every step.
func (p *Pipeline) Run(ctx context.Context, steps ...string) (*operations.OperationResponse, error) {
	if err := p.paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create output directories: %w", err)
	}
	return p.Manager.Execute(ctx, operations.OperationRequest{
		ID:    infrastructure.NewRunID(),
		Steps: steps,
	})
}
