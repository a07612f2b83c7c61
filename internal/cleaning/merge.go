package cleaning

import (
	"fmt"

	apperrors "filmstats/internal/errors"
	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

// MergeRatingsMovies inner-joins ratings with movie metadata on movie_id.
// Each rating matches at most one movie; duplicate movie ids are rejected.
// Output rows keep the order of ratings.
func MergeRatingsMovies(ratings []domain.Rating, movies []domain.Movie) ([]domain.RatedMovie, domain.MergeStats, error) {
	byID := make(map[string]*domain.Movie, len(movies))
	for i := range movies {
		m := &movies[i]
		if _, dup := byID[m.ID]; dup {
			return nil, domain.MergeStats{}, apperrors.NewAppValidationError(
				fmt.Sprintf("merge keys are not unique in movies: %q appears more than once", m.ID))
		}
		byID[m.ID] = m
	}

	merged := make([]domain.RatedMovie, 0, len(ratings))
	for _, r := range ratings {
		m, ok := byID[r.MovieID]
		if !ok {
			continue
		}
		merged = append(merged, domain.RatedMovie{
			Rating:           r,
			MovieTitle:       m.Title,
			YearReleased:     m.YearReleased,
			Genres:           m.Genres,
			OriginalLanguage: m.OriginalLanguage,
			Runtime:          m.Runtime,
			VoteAverage:      m.VoteAverage,
			VoteCount:        m.VoteCount,
		})
	}

	stats := domain.MergeStats{
		RatingsRows:      len(ratings),
		MergedRows:       len(merged),
		DroppedUnmatched: len(ratings) - len(merged),
	}
	return merged, stats, nil
}

// MergedColumns is the header of the merged table: the rating columns
// followed by the movie fields the merge adds.
func MergedColumns(ratingColumns []string) []string {
	have := knownSet(ratingColumns...)
	columns := append([]string(nil), ratingColumns...)
	for _, col := range exporter.MergedMovieColumns {
		if !have[col] {
			columns = append(columns, col)
		}
	}
	return columns
}
