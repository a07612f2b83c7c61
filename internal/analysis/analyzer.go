package analysis

import (
	"context"
	"log/slog"

	"filmstats/pkg/contracts/domain"
)

// Analyzer derives the genre, year, language and rating summaries
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger.With(slog.String("component", "analyzer"))}
}

// Run computes every summary. rows feeds the rating distribution, aggs the
// categorical summaries.
func (a *Analyzer) Run(ctx context.Context, aggs []domain.MovieAggregate, rows []domain.RatedMovie) (*domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &domain.Analysis{
		Genres:             GenreSummary(aggs),
		Years:              YearSummary(aggs),
		Languages:          LanguageSummary(aggs),
		RatingDistribution: RatingDistribution(rows),
	}

	a.logger.InfoContext(ctx, "analysis complete",
		slog.Int("movies", len(aggs)),
		slog.Int("rating_rows", len(rows)),
		slog.Int("genres", len(result.Genres.Genres)),
		slog.Int("movies_with_genre", result.Genres.MoviesWithGenre),
		slog.Int("years", len(result.Years.Years)),
		slog.Int("movies_undated", result.Years.MoviesUndated),
		slog.Int("languages", len(result.Languages)),
		slog.Int("rating_values", len(result.RatingDistribution)))
	return result, nil
}
