package http

import (
	"context"

	"filmstats/internal/files"
	"filmstats/internal/operations"
	"filmstats/internal/services"
	"filmstats/pkg/contracts/domain"
)

// DataServiceInterface serves the published pipeline results
type DataServiceInterface interface {
	Ready() bool
	Movies(q services.MovieQuery) (*services.MoviePage, error)
	Movie(id string) (*domain.MovieAggregate, error)
	Summary() (*domain.AggregateSummary, error)
	Genres() (*domain.GenreAnalysis, error)
	Years() (*domain.YearAnalysis, error)
	Languages() ([]domain.LanguageStats, error)
	RatingDistribution() ([]domain.RatingBucket, error)
	Reports(ctx context.Context) ([]files.FileInfo, error)
	ReportPath(name string) (string, error)
}

// OperationServiceInterface starts and tracks pipeline runs
type OperationServiceInterface interface {
	StartPipeline(ctx context.Context, req services.RunRequest) (*operations.Job, error)
	GetJob(id string) (*operations.Job, error)
	ListJobs(limit int) ([]*operations.Job, error)
	CancelJob(id string) error
	Snapshot(operationID string) (*operations.OperationSnapshot, error)
	Steps() []string
	QueueStats() map[string]interface{}
}

var (
	_ DataServiceInterface      = (*services.DataService)(nil)
	_ OperationServiceInterface = (*services.OperationService)(nil)
)
