package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"filmstats/internal/aggregate"
	"filmstats/internal/config"
	apperrors "filmstats/internal/errors"
	"filmstats/internal/files"
	"filmstats/internal/ingest"
	"filmstats/internal/operations"
	"filmstats/pkg/contracts/domain"
)

// Sort keys accepted by Movies
const (
	SortRatingCount  = "rating_count"
	SortRatingMean   = "rating_mean"
	SortRatingMedian = "rating_median"
	SortUserCount    = "user_count"
	SortTitle        = "title"
	SortYear         = "year"
)

// DefaultMovieLimit is the page size used when a query leaves it unset
const DefaultMovieLimit = 50

// MovieQuery selects a page of movie aggregates
type MovieQuery struct {
	Limit      int    `json:"limit" validate:"min=0,max=500"`
	Offset     int    `json:"offset" validate:"min=0"`
	Sort       string `json:"sort" validate:"omitempty,oneof=rating_count rating_mean rating_median user_count title year"`
	MinRatings int64  `json:"min_ratings" validate:"min=0"`
}

// MoviePage is one page of movie aggregates
type MoviePage struct {
	Movies []domain.MovieAggregate `json:"movies"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// DataService holds the latest pipeline results and serves them to the
// API. The manager publishes into it after every successful run.
type DataService struct {
	mu          sync.RWMutex
	aggregates  []domain.MovieAggregate
	byID        map[string]int
	summary     *domain.AggregateSummary
	analysis    *domain.Analysis
	publishedAt time.Time

	paths     *config.Paths
	settings  *config.Config
	discovery *files.Discovery
	logger    *slog.Logger
}

var _ operations.ResultSink = (*DataService)(nil)

// NewDataService creates a data service over the configured paths
func NewDataService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		paths:     paths,
		settings:  cfg,
		discovery: files.NewDiscovery(cfg.Paths.BaseDir),
		logger:    logger.With(slog.String("service", "data")),
	}
}

// Publish replaces the held results
func (s *DataService) Publish(aggs []domain.MovieAggregate, summary domain.AggregateSummary, analysis *domain.Analysis) {
	byID := make(map[string]int, len(aggs))
	for i := range aggs {
		byID[aggs[i].MovieID] = i
	}

	s.mu.Lock()
	s.aggregates = aggs
	s.byID = byID
	s.summary = &summary
	s.analysis = analysis
	s.publishedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("results published", slog.Int("movies", len(aggs)))
}

// LoadFromDisk publishes the outputs of an earlier run. It returns a
// NOT_FOUND error when no aggregates have been written yet.
func (s *DataService) LoadFromDisk(ctx context.Context) error {
	opts := ingest.LoadOptions{SkipBadLines: s.settings.Pipeline.SkipBadLines, Logger: s.logger}
	if !config.FileExists(s.paths.MovieAggregatesCSV) {
		return apperrors.NewMissingFileError("movie aggregates", s.paths.MovieAggregatesCSV).
			WithHint("run `filmstats run` first")
	}

	opts.Kind = "movie aggregates"
	aggs, err := ingest.LoadAggregates(ctx, s.paths.MovieAggregatesCSV, opts)
	if err != nil {
		return err
	}
	opts.Kind = ""
	analysis, err := operations.LoadAnalysis(ctx, s.paths, aggs, opts)
	if err != nil {
		s.logError(ctx, "load_from_disk", "analysis tables unavailable", slog.String("error", err.Error()))
		analysis = nil
	}

	summary := aggregate.ConfigFromPipeline(s.settings.Pipeline).Summarize(aggs)
	s.Publish(aggs, summary, analysis)
	return nil
}

// Ready reports whether results have been published
func (s *DataService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary != nil
}

// PublishedAt returns when results were last published
func (s *DataService) PublishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishedAt
}

func errNoResults() error {
	return apperrors.NewNotFoundError("pipeline results").WithHint("run the pipeline first")
}

// Movies returns a page of aggregates filtered and sorted per q
func (s *DataService) Movies(q MovieQuery) (*MoviePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, errNoResults()
	}

	if q.Limit <= 0 {
		q.Limit = DefaultMovieLimit
	}

	selected := make([]domain.MovieAggregate, 0, len(s.aggregates))
	for i := range s.aggregates {
		if s.aggregates[i].RatingCount >= q.MinRatings {
			selected = append(selected, s.aggregates[i])
		}
	}
	sortMovies(selected, q.Sort)

	page := &MoviePage{Total: len(selected), Limit: q.Limit, Offset: q.Offset, Movies: []domain.MovieAggregate{}}
	if q.Offset < len(selected) {
		end := q.Offset + q.Limit
		if end > len(selected) {
			end = len(selected)
		}
		page.Movies = selected[q.Offset:end]
	}
	return page, nil
}

// sortMovies orders descending on the numeric keys, ascending on title and
// year. Ties break on movie ID so pages are stable.
func sortMovies(movies []domain.MovieAggregate, key string) {
	if key == "" {
		key = SortRatingCount
	}
	less := func(a, b *domain.MovieAggregate) (bool, bool) {
		switch key {
		case SortRatingMean:
			return a.RatingMean > b.RatingMean, a.RatingMean == b.RatingMean
		case SortRatingMedian:
			return a.RatingMedian > b.RatingMedian, a.RatingMedian == b.RatingMedian
		case SortUserCount:
			return a.UserCount > b.UserCount, a.UserCount == b.UserCount
		case SortTitle:
			at, bt := strings.ToLower(a.MovieTitle), strings.ToLower(b.MovieTitle)
			return at < bt, at == bt
		case SortYear:
			ay, by := yearOf(a), yearOf(b)
			return ay < by, ay == by
		default:
			return a.RatingCount > b.RatingCount, a.RatingCount == b.RatingCount
		}
	}
	sort.SliceStable(movies, func(i, j int) bool {
		before, equal := less(&movies[i], &movies[j])
		if equal {
			return movies[i].MovieID < movies[j].MovieID
		}
		return before
	})
}

// yearOf sorts undated movies last
func yearOf(m *domain.MovieAggregate) int {
	if m.YearReleased == nil {
		return int(^uint(0) >> 1)
	}
	return *m.YearReleased
}

// Movie returns the aggregate for one movie
func (s *DataService) Movie(id string) (*domain.MovieAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, errNoResults()
	}
	i, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("movie " + id)
	}
	m := s.aggregates[i]
	return &m, nil
}

// Summary returns the aggregate summary
func (s *DataService) Summary() (*domain.AggregateSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, errNoResults()
	}
	return s.summary, nil
}

func (s *DataService) currentAnalysis() (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analysis == nil {
		return nil, apperrors.NewNotFoundError("analysis results").WithHint("run `filmstats analyze` first")
	}
	return s.analysis, nil
}

// Genres returns the genre summary
func (s *DataService) Genres() (*domain.GenreAnalysis, error) {
	a, err := s.currentAnalysis()
	if err != nil {
		return nil, err
	}
	return &a.Genres, nil
}

// Years returns the release year summary
func (s *DataService) Years() (*domain.YearAnalysis, error) {
	a, err := s.currentAnalysis()
	if err != nil {
		return nil, err
	}
	return &a.Years, nil
}

// Languages returns the original language summary
func (s *DataService) Languages() ([]domain.LanguageStats, error) {
	a, err := s.currentAnalysis()
	if err != nil {
		return nil, err
	}
	return a.Languages, nil
}

// RatingDistribution returns the share of ratings per rating value
func (s *DataService) RatingDistribution() ([]domain.RatingBucket, error) {
	a, err := s.currentAnalysis()
	if err != nil {
		return nil, err
	}
	return a.RatingDistribution, nil
}

// Reports lists the report artifacts on disk
func (s *DataService) Reports(ctx context.Context) ([]files.FileInfo, error) {
	reports, err := s.discovery.FindReports(s.paths.ReportsDir)
	if err != nil {
		s.logError(ctx, "list_reports", "failed to list reports",
			slog.String("dir", s.paths.ReportsDir), slog.String("error", err.Error()))
		return nil, apperrors.NewStorageError("failed to list reports", err)
	}
	return reports, nil
}

// ReportPath resolves a report name to its file
func (s *DataService) ReportPath(name string) (string, error) {
	path, ok := s.discovery.ResolveReport(s.paths.ReportsDir, name)
	if !ok {
		return "", apperrors.NewNotFoundError("report " + name)
	}
	return path, nil
}
