package ingest

import (
	"context"
	"errors"
	"fmt"

	"filmstats/internal/dataprocessing"
	apperrors "filmstats/internal/errors"
	"filmstats/pkg/contracts/domain"
)

func optionalYear(value string) *int {
	if y, ok := dataprocessing.ToInt(value); ok {
		return domain.IntPtr(int(y))
	}
	return nil
}

// LoadRatedMovies reads the merged ratings written by the clean stage. Rows
// whose rating_val is not numeric are skipped. Columns outside the merged
// movie fields are kept in Rating.Extra.
func LoadRatedMovies(ctx context.Context, path string, opts LoadOptions) ([]domain.RatedMovie, []string, error) {
	if opts.Kind == "" {
		opts.Kind = "merged ratings"
	}
	table, err := LoadTable(ctx, path, opts)
	if err != nil {
		return nil, nil, withProducer(err, "clean")
	}

	columns := table.Columns()
	idx := IndexColumns(columns)
	if err := idx.require(path, domain.ColMovieID, domain.ColRatingVal); err != nil {
		return nil, nil, err
	}

	known := map[string]bool{domain.ColMovieID: true, domain.ColUserID: true, domain.ColRatingVal: true}
	for _, col := range ratedMovieColumns {
		known[col] = true
	}

	records := table.Records()
	rows := make([]domain.RatedMovie, 0, len(records))
	for _, rec := range records {
		val, ok := dataprocessing.ToInt(idx.Get(rec, domain.ColRatingVal))
		if !ok {
			continue
		}

		row := domain.RatedMovie{
			Rating: domain.Rating{
				MovieID:   idx.Get(rec, domain.ColMovieID),
				UserID:    idx.Get(rec, domain.ColUserID),
				RatingVal: int(val),
			},
			MovieTitle:       idx.Get(rec, domain.ColMovieTitle),
			YearReleased:     optionalYear(idx.Get(rec, domain.ColYearReleased)),
			Genres:           dataprocessing.ParseStringList(idx.Get(rec, domain.ColGenres)),
			OriginalLanguage: idx.Get(rec, domain.ColOriginalLanguage),
			Runtime:          dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColRuntime), 0),
			VoteAverage:      dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColVoteAverage), 0),
			VoteCount:        dataprocessing.ToIntDefault(idx.Get(rec, domain.ColVoteCount), 0),
		}
		if dataprocessing.IsMissing(row.UserID) {
			row.UserID = ""
		}
		for i, col := range columns {
			if !known[col] {
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, columns, nil
}

var ratedMovieColumns = []string{
	domain.ColMovieTitle, domain.ColYearReleased, domain.ColGenres, domain.ColOriginalLanguage,
	domain.ColRuntime, domain.ColVoteAverage, domain.ColVoteCount,
}

// LoadAggregates reads movie_aggregates.csv. Malformed numbers fall back to
// zero.
func LoadAggregates(ctx context.Context, path string, opts LoadOptions) ([]domain.MovieAggregate, error) {
	if opts.Kind == "" {
		opts.Kind = "movie aggregates"
	}
	table, err := LoadTable(ctx, path, opts)
	if err != nil {
		return nil, withProducer(err, "aggregate")
	}

	idx := IndexColumns(table.Columns())
	if err := idx.require(path, domain.ColMovieID, domain.ColRatingCount, domain.ColRatingMean); err != nil {
		return nil, err
	}

	records := table.Records()
	aggs := make([]domain.MovieAggregate, len(records))
	for i, rec := range records {
		aggs[i] = domain.MovieAggregate{
			MovieID:          idx.Get(rec, domain.ColMovieID),
			MovieTitle:       idx.Get(rec, domain.ColMovieTitle),
			YearReleased:     optionalYear(idx.Get(rec, domain.ColYearReleased)),
			OriginalLanguage: idx.Get(rec, domain.ColOriginalLanguage),
			Genres:           dataprocessing.ParseStringList(idx.Get(rec, domain.ColGenres)),
			Runtime:          dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColRuntime), 0),
			TMDBVoteAverage:  dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColTMDBVoteAverage), 0),
			TMDBVoteCount:    dataprocessing.ToIntDefault(idx.Get(rec, domain.ColTMDBVoteCount), 0),
			RatingCount:      dataprocessing.ToIntDefault(idx.Get(rec, domain.ColRatingCount), 0),
			RatingMean:       dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColRatingMean), 0),
			RatingMedian:     dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColRatingMedian), 0),
			RatingStd:        dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColRatingStd), 0),
			RatingMin:        int(dataprocessing.ToIntDefault(idx.Get(rec, domain.ColRatingMin), 0)),
			RatingMax:        int(dataprocessing.ToIntDefault(idx.Get(rec, domain.ColRatingMax), 0)),
			UserCount:        dataprocessing.ToIntDefault(idx.Get(rec, domain.ColUserCount), 0),
		}
	}
	return aggs, nil
}

// withProducer adds a hint naming the command that writes a missing
// processed file
func withProducer(err error, command string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeNotFound {
		return appErr.WithHint(fmt.Sprintf("run `filmstats %s` first", command))
	}
	return err
}

// LoadCategoryStats reads a grouped summary such as genre_stats.csv.
// keyColumn names the first column.
func LoadCategoryStats(ctx context.Context, path, keyColumn string, opts LoadOptions) ([]domain.CategoryStats, error) {
	if opts.Kind == "" {
		opts.Kind = keyColumn + " statistics"
	}
	table, err := LoadTable(ctx, path, opts)
	if err != nil {
		return nil, withProducer(err, "analyze")
	}

	idx := IndexColumns(table.Columns())
	if err := idx.require(path, keyColumn, "movie_count", "total_ratings"); err != nil {
		return nil, err
	}

	records := table.Records()
	stats := make([]domain.CategoryStats, len(records))
	for i, rec := range records {
		stats[i] = domain.CategoryStats{
			Key:               idx.Get(rec, keyColumn),
			MovieCount:        int(dataprocessing.ToIntDefault(idx.Get(rec, "movie_count"), 0)),
			TotalRatings:      dataprocessing.ToIntDefault(idx.Get(rec, "total_ratings"), 0),
			AvgRating:         dataprocessing.ToFloatDefault(idx.Get(rec, "avg_rating"), 0),
			MedianMovieRating: dataprocessing.ToFloatDefault(idx.Get(rec, "median_movie_rating"), 0),
		}
	}
	return stats, nil
}

// LoadRatingDistribution reads rating_distribution.csv. Rows without a
// numeric rating_val are skipped.
func LoadRatingDistribution(ctx context.Context, path string, opts LoadOptions) ([]domain.RatingBucket, error) {
	if opts.Kind == "" {
		opts.Kind = "rating distribution"
	}
	table, err := LoadTable(ctx, path, opts)
	if err != nil {
		return nil, withProducer(err, "analyze")
	}

	idx := IndexColumns(table.Columns())
	if err := idx.require(path, domain.ColRatingVal, domain.ColRatingCount); err != nil {
		return nil, err
	}

	records := table.Records()
	buckets := make([]domain.RatingBucket, 0, len(records))
	for _, rec := range records {
		val, ok := dataprocessing.ToInt(idx.Get(rec, domain.ColRatingVal))
		if !ok {
			continue
		}
		buckets = append(buckets, domain.RatingBucket{
			RatingVal:   int(val),
			RatingCount: dataprocessing.ToIntDefault(idx.Get(rec, domain.ColRatingCount), 0),
			Share:       dataprocessing.ToFloatDefault(idx.Get(rec, domain.ColShare), 0),
		})
	}
	return buckets, nil
}
