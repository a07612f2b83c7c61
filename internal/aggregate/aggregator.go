package aggregate

import (
	"context"
	"log/slog"

	"filmstats/internal/config"
	"filmstats/pkg/contracts/domain"
)

// Config holds the thresholds of the aggregate summary
type Config struct {
	TopRatedMinRatings int64
	TopRatedLimit      int
}

// ConfigFromPipeline takes the summary thresholds from the pipeline
// settings. Both the aggregate step and the server's reload use it, so a
// threshold of 0 means the same in both.
func ConfigFromPipeline(p config.PipelineConfig) Config {
	return Config{TopRatedMinRatings: p.TopRatedMinRatings, TopRatedLimit: p.TopRatedLimit}
}

// Summarize computes the summary of aggs with these thresholds
func (c Config) Summarize(aggs []domain.MovieAggregate) domain.AggregateSummary {
	return Summarize(aggs, c.TopRatedMinRatings, c.TopRatedLimit)
}

// Aggregator computes per-movie aggregates and their summary
type Aggregator struct {
	logger *slog.Logger
	config Config
}

// NewAggregator creates an aggregator. The thresholds are used as given;
// defaults come from config.Default.
func NewAggregator(logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		logger: logger.With(slog.String("component", "aggregator")),
		config: cfg,
	}
}

// Run aggregates merged ratings and summarises the result
func (a *Aggregator) Run(ctx context.Context, rows []domain.RatedMovie) ([]domain.MovieAggregate, domain.AggregateSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.AggregateSummary{}, err
	}
	a.logger.InfoContext(ctx, "aggregating ratings by movie",
		slog.Int("rating_rows", len(rows)))

	aggs := ComputeMovieAggregates(rows)
	summary := a.config.Summarize(aggs)

	a.logger.InfoContext(ctx, "movie aggregates computed",
		slog.Int("movies", summary.MoviesWithRatings),
		slog.Float64("median_rating_count", summary.MedianRatingCount),
		slog.Float64("global_mean_rating", summary.GlobalMeanRating),
		slog.Int("top_rated", len(summary.TopRated)))
	return aggs, summary, nil
}
