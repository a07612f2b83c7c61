package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"filmstats/internal/config"
	"filmstats/internal/operations"
)

// ClientCounter reports the connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     *config.Paths
	operation *operations.Manager
	hub       ClientCounter
	data      *DataService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health states
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// NewHealthService creates a health service. hub and data may be nil.
func NewHealthService(version, buildTime string, paths *config.Paths, operation *operations.Manager, hub ClientCounter, data *DataService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		operation: operation,
		hub:       hub,
		data:      data,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck reports readiness of the data directory, the pipeline and
// the published results
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"data_dir": hs.checkDataDir(),
			"pipeline": hs.checkPipeline(),
			"results":  hs.checkResults(),
		},
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
	if hs.hub != nil {
		status.Runtime["websocket_clients"] = hs.hub.ClientCount()
	}

	for _, service := range status.Services {
		if service.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	info, err := os.Stat(hs.paths.DataDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("data directory not found: %s", hs.paths.DataDir),
		}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.operation == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "pipeline manager not initialized"}
	}
	running := 0
	for _, op := range hs.operation.ListOperations() {
		if op.Status == operations.OperationStatusRunning {
			running++
		}
	}
	return ServiceHealth{Status: StatusReady, Message: fmt.Sprintf("%d run(s) in progress", running)}
}

// checkResults is ready once a run has published, so a fresh server with
// no processed data reports not_ready
func (hs *HealthService) checkResults() ServiceHealth {
	if hs.data == nil || !hs.data.Ready() {
		return ServiceHealth{Status: StatusNotReady, Message: "no pipeline results yet"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: "published " + hs.data.PublishedAt().Format(time.RFC3339),
	}
}
