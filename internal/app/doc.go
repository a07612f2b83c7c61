// Package app wires the filmstats pipeline and HTTP server together.
//
// NewPipeline registers the five pipeline steps (load, clean, aggregate,
// analyze, report) on an operations.Manager. The CLI calls Pipeline.Run
// directly; the server hands runs to a single-worker job queue so that only
// one run touches the output files at a time.
//
// # Initialization Flow
//
//  1. Resolve paths and create the output directories
//  2. Initialize telemetry (tracer, Prometheus meter)
//  3. Start the websocket hub and build the pipeline
//  4. Load the previous results from disk into the data service
//  5. Start the job queue and build the router
//
// Application.Run serves until SIGINT/SIGTERM and then shuts down the HTTP
// server, cancels the active run and stops the hub.
package app
