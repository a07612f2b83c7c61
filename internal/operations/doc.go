// Package operations runs the filmstats pipeline as a sequence of steps.
//
// The pipeline has five steps, in dependency order: load, clean, aggregate,
// analyze and report. Each step persists its outputs; a step run without its
// upstream step reads the upstream files back from disk, so every CLI stage
// command is a one-step run.
//
// Core Components:
//
// Manager: executes a run. It resolves the requested steps in dependency
// order, validates their inputs, applies per-step timeouts and retries,
// skips dependents of a failed step and writes the run manifest.
//
// Step: one stage of the pipeline. RequiredInputs names what a step reads
// and which command produces it, so a missing input fails with a hint.
//
// Registry: holds the registered steps and sorts them topologically.
//
// StatusBroadcaster: keeps a snapshot of each run and pushes it to the
// websocket hub after every change.
//
// JobQueue: runs API-submitted pipeline requests in the background.
//
// Example usage:
//
//	registry := operations.NewRegistry()
//	manager := operations.NewManager(hub, registry, operations.NewConfig(), logger)
//	opts := &operations.StageOptions{Paths: paths, Settings: cfg, Broadcaster: manager.GetBroadcaster()}
//	if err := operations.RegisterStages(registry, logger, opts); err != nil {
//		return err
//	}
//	resp, err := manager.Execute(ctx, operations.OperationRequest{Steps: []string{"aggregate"}})
package operations
