package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"filmstats/internal/files"
	"filmstats/internal/operations"
	"filmstats/internal/services"
	"filmstats/pkg/contracts/domain"
)

// MockDataService is a mock implementation of DataServiceInterface
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockDataService) Movies(q services.MovieQuery) (*services.MoviePage, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MoviePage), args.Error(1)
}

func (m *MockDataService) Movie(id string) (*domain.MovieAggregate, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MovieAggregate), args.Error(1)
}

func (m *MockDataService) Summary() (*domain.AggregateSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AggregateSummary), args.Error(1)
}

func (m *MockDataService) Genres() (*domain.GenreAnalysis, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenreAnalysis), args.Error(1)
}

func (m *MockDataService) Years() (*domain.YearAnalysis, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.YearAnalysis), args.Error(1)
}

func (m *MockDataService) Languages() ([]domain.LanguageStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LanguageStats), args.Error(1)
}

func (m *MockDataService) RatingDistribution() ([]domain.RatingBucket, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatingBucket), args.Error(1)
}

func (m *MockDataService) Reports(ctx context.Context) ([]files.FileInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]files.FileInfo), args.Error(1)
}

func (m *MockDataService) ReportPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

// MockOperationService is a mock implementation of OperationServiceInterface
type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) StartPipeline(ctx context.Context, req services.RunRequest) (*operations.Job, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operations.Job), args.Error(1)
}

func (m *MockOperationService) GetJob(id string) (*operations.Job, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operations.Job), args.Error(1)
}

func (m *MockOperationService) ListJobs(limit int) ([]*operations.Job, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*operations.Job), args.Error(1)
}

func (m *MockOperationService) CancelJob(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockOperationService) Snapshot(operationID string) (*operations.OperationSnapshot, error) {
	args := m.Called(operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operations.OperationSnapshot), args.Error(1)
}

func (m *MockOperationService) Steps() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockOperationService) QueueStats() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}
