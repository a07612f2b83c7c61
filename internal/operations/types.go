package operations

import (
	"time"

	"filmstats/pkg/contracts/events"
)

// Pipeline step identifiers
const (
	StepIDLoad      = "load"
	StepIDClean     = "clean"
	StepIDAggregate = "aggregate"
	StepIDAnalyze   = "analyze"
	StepIDReport    = "report"
)

// Pipeline step names
const (
	StepNameLoad      = "Load Raw Exports"
	StepNameClean     = "Clean and Merge"
	StepNameAggregate = "Aggregate Ratings"
	StepNameAnalyze   = "Analyze Summaries"
	StepNameReport    = "Render Reports"
)

// Context keys for data passed between steps in one run
const (
	ContextKeyRawDataset  = "raw_dataset"
	ContextKeyCleaned     = "cleaned"
	ContextKeyRatedMovies = "rated_movies"
	ContextKeyAggregates  = "aggregates"
	ContextKeySummary     = "aggregate_summary"
	ContextKeyAnalysis    = "analysis"
	ContextKeyReports     = "reports"
)

// EventTypeSnapshot is the websocket event carrying an OperationSnapshot
const EventTypeSnapshot = string(events.MessageTypeOperationSnapshot)

// Default timeouts
const (
	DefaultStepTimeout      = 30 * time.Minute
	DefaultLoadTimeout      = 10 * time.Minute
	DefaultCleanTimeout     = 20 * time.Minute
	DefaultAggregateTimeout = 10 * time.Minute
	DefaultAnalyzeTimeout   = 5 * time.Minute
	DefaultReportTimeout    = 5 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Only storage
// failures are retried; parsing and missing-input errors fail at once.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest asks the manager to run a subset of the pipeline. An
// empty Steps list runs every registered step.
type OperationRequest struct {
	ID    string   `json:"id"`
	Steps []string `json:"steps,omitempty"`
}

// OperationResponse represents the response from a pipeline run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Outputs  []OutputFile          `json:"outputs,omitempty"`
	Error    string                `json:"error,omitempty"`
}
