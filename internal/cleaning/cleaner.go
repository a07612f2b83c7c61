package cleaning

import (
	"context"
	"log/slog"

	"filmstats/internal/ingest"
	"filmstats/pkg/contracts/domain"
)

// Result is the output of one cleaning pass over the raw exports
type Result struct {
	Movies        []domain.Movie
	MovieColumns  []string
	Ratings       []domain.Rating
	RatingColumns []string
	Users         []domain.User
	UserColumns   []string
	Merged        []domain.RatedMovie
	MergedColumns []string
	MergeStats    domain.MergeStats
	Reports       []*Report
}

// Cleaner runs the cleaning pass and logs what each step removed
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Run cleans movies, ratings and users and merges ratings with movies
func (c *Cleaner) Run(ctx context.Context, raw *ingest.RawDataset) (*Result, error) {
	movies, moviesReport, err := CleanMovies(raw.Movies)
	if err != nil {
		return nil, err
	}
	c.logReport(ctx, raw.Movies, len(movies), moviesReport)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ratings, ratingsReport, err := CleanRatings(raw.Ratings)
	if err != nil {
		return nil, err
	}
	c.logReport(ctx, raw.Ratings, len(ratings), ratingsReport)

	users, usersReport, err := CleanUsers(raw.Users)
	if err != nil {
		return nil, err
	}
	c.logReport(ctx, raw.Users, len(users), usersReport)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged, stats, err := MergeRatingsMovies(ratings, movies)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "ratings merged with movies",
		slog.Int("ratings_rows", stats.RatingsRows),
		slog.Int("merged_rows", stats.MergedRows),
		slog.Int("dropped_unmatched", stats.DroppedUnmatched))

	ratingCols := raw.Ratings.Columns()
	return &Result{
		Movies:        movies,
		MovieColumns:  raw.Movies.Columns(),
		Ratings:       ratings,
		RatingColumns: ratingCols,
		Users:         users,
		UserColumns:   raw.Users.Columns(),
		Merged:        merged,
		MergedColumns: MergedColumns(ratingCols),
		MergeStats:    stats,
		Reports:       []*Report{moviesReport, ratingsReport, usersReport},
	}, nil
}

func (c *Cleaner) logReport(ctx context.Context, table *ingest.Table, kept int, report *Report) {
	c.logger.InfoContext(ctx, "table cleaned",
		slog.String("table", report.Name),
		slog.Int("rows_in", table.Len()),
		slog.Int("rows_out", kept),
		slog.Any("notes", report.Notes))
}
