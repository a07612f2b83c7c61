package exporter

import (
	"log/slog"
	"strconv"

	"filmstats/pkg/contracts/domain"
)

// Column layouts of the derived tables
var (
	AggregateColumns = []string{
		domain.ColMovieID, domain.ColMovieTitle, domain.ColYearReleased, domain.ColOriginalLanguage,
		domain.ColGenres, domain.ColRuntime, domain.ColTMDBVoteAverage, domain.ColTMDBVoteCount,
		domain.ColRatingCount, domain.ColRatingMean, domain.ColRatingMedian, domain.ColRatingStd,
		domain.ColRatingMin, domain.ColRatingMax, domain.ColUserCount,
	}
	CategoryColumns           = []string{"movie_count", "total_ratings", "avg_rating", "median_movie_rating"}
	RatingDistributionColumns = []string{domain.ColRatingVal, domain.ColRatingCount, domain.ColShare}

	// MergedMovieColumns are appended to the rating columns by the merge
	MergedMovieColumns = []string{
		domain.ColMovieTitle, domain.ColYearReleased, domain.ColGenres, domain.ColOriginalLanguage,
		domain.ColRuntime, domain.ColVoteAverage, domain.ColVoteCount,
	}
)

// TableExporter writes the pipeline tables as CSV
type TableExporter struct {
	csv *CSVWriter
}

// NewTableExporter creates a table exporter
func NewTableExporter(logger *slog.Logger) *TableExporter {
	return &TableExporter{csv: NewCSVWriter(logger)}
}

// MovieCell renders one column of a cleaned movie
func MovieCell(m *domain.Movie, column string) string {
	switch column {
	case domain.ColMovieID:
		return m.ID
	case domain.ColMovieTitle:
		return m.Title
	case domain.ColGenres:
		return FormatList(m.Genres)
	case domain.ColProductionCountries:
		return FormatList(m.ProductionCountries)
	case domain.ColSpokenLanguages:
		return FormatList(m.SpokenLanguages)
	case domain.ColOriginalLanguage:
		return m.OriginalLanguage
	case domain.ColOverview:
		return m.Overview
	case domain.ColReleaseDate:
		return FormatDate(m.ReleaseDate)
	case domain.ColYearReleased:
		return FormatOptionalInt(m.YearReleased)
	case domain.ColRuntime:
		return FormatFloat(m.Runtime)
	case domain.ColPopularity:
		return FormatFloat(m.Popularity)
	case domain.ColVoteAverage:
		return FormatFloat(m.VoteAverage)
	case domain.ColVoteCount:
		return FormatInt(m.VoteCount)
	}
	return m.Extra[column]
}

// RatingCell renders one column of a cleaned rating
func RatingCell(r *domain.Rating, column string) string {
	switch column {
	case domain.ColMovieID:
		return r.MovieID
	case domain.ColUserID:
		return r.UserID
	case domain.ColRatingVal:
		return strconv.Itoa(r.RatingVal)
	}
	return r.Extra[column]
}

// UserCell renders one column of a cleaned user
func UserCell(u *domain.User, column string) string {
	switch column {
	case domain.ColUsername:
		return u.Username
	case domain.ColDisplayName:
		return u.DisplayName
	case domain.ColNumRatingsPages:
		return FormatInt(u.NumRatingsPages)
	case domain.ColNumReviews:
		return FormatInt(u.NumReviews)
	}
	return u.Extra[column]
}

// RatedMovieCell renders one column of a merged rating row
func RatedMovieCell(r *domain.RatedMovie, column string) string {
	switch column {
	case domain.ColMovieTitle:
		return r.MovieTitle
	case domain.ColYearReleased:
		return FormatOptionalInt(r.YearReleased)
	case domain.ColGenres:
		return FormatList(r.Genres)
	case domain.ColOriginalLanguage:
		return r.OriginalLanguage
	case domain.ColRuntime:
		return FormatFloat(r.Runtime)
	case domain.ColVoteAverage:
		return FormatFloat(r.VoteAverage)
	case domain.ColVoteCount:
		return FormatInt(r.VoteCount)
	}
	return RatingCell(&r.Rating, column)
}

func project[T any](columns []string, rows []T, cell func(*T, string) string) [][]string {
	records := make([][]string, len(rows))
	for i := range rows {
		record := make([]string, len(columns))
		for j, col := range columns {
			record[j] = cell(&rows[i], col)
		}
		records[i] = record
	}
	return records
}

// WriteMovies writes cleaned movies using the source column order
func (e *TableExporter) WriteMovies(path string, columns []string, movies []domain.Movie) error {
	return e.csv.WriteSimpleCSV(path, columns, project(columns, movies, MovieCell))
}

// WriteRatings writes cleaned ratings using the source column order
func (e *TableExporter) WriteRatings(path string, columns []string, ratings []domain.Rating) error {
	return e.csv.WriteSimpleCSV(path, columns, project(columns, ratings, RatingCell))
}

// WriteUsers writes cleaned users using the source column order
func (e *TableExporter) WriteUsers(path string, columns []string, users []domain.User) error {
	return e.csv.WriteSimpleCSV(path, columns, project(columns, users, UserCell))
}

// WriteRatedMovies streams merged rating rows
func (e *TableExporter) WriteRatedMovies(path string, columns []string, rows []domain.RatedMovie) error {
	stream, err := e.csv.CreateStreamWriter(path, columns)
	if err != nil {
		return err
	}
	record := make([]string, len(columns))
	for i := range rows {
		for j, col := range columns {
			record[j] = RatedMovieCell(&rows[i], col)
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.abort()
			return err
		}
	}
	return stream.Close()
}

// AggregateRecord renders one aggregate in AggregateColumns order
func AggregateRecord(a *domain.MovieAggregate) []string {
	return []string{
		a.MovieID,
		a.MovieTitle,
		FormatOptionalInt(a.YearReleased),
		a.OriginalLanguage,
		FormatList(a.Genres),
		FormatFloat(a.Runtime),
		FormatFloat(a.TMDBVoteAverage),
		FormatInt(a.TMDBVoteCount),
		FormatInt(a.RatingCount),
		FormatFloat(a.RatingMean),
		FormatFloat(a.RatingMedian),
		FormatFloat(a.RatingStd),
		strconv.Itoa(a.RatingMin),
		strconv.Itoa(a.RatingMax),
		FormatInt(a.UserCount),
	}
}

// WriteAggregates writes movie_aggregates.csv
func (e *TableExporter) WriteAggregates(path string, aggs []domain.MovieAggregate) error {
	records := make([][]string, len(aggs))
	for i := range aggs {
		records[i] = AggregateRecord(&aggs[i])
	}
	return e.csv.WriteSimpleCSV(path, AggregateColumns, records)
}

// WriteCategoryStats writes a grouped summary; keyColumn names the first column
func (e *TableExporter) WriteCategoryStats(path, keyColumn string, stats []domain.CategoryStats) error {
	headers := append([]string{keyColumn}, CategoryColumns...)
	records := make([][]string, len(stats))
	for i, s := range stats {
		records[i] = []string{
			s.Key,
			strconv.Itoa(s.MovieCount),
			FormatInt(s.TotalRatings),
			FormatFloat(s.AvgRating),
			FormatFloat(s.MedianMovieRating),
		}
	}
	return e.csv.WriteSimpleCSV(path, headers, records)
}

// WriteRatingDistribution writes rating_distribution.csv
func (e *TableExporter) WriteRatingDistribution(path string, buckets []domain.RatingBucket) error {
	records := make([][]string, len(buckets))
	for i, b := range buckets {
		records[i] = []string{strconv.Itoa(b.RatingVal), FormatInt(b.RatingCount), FormatFloat(b.Share)}
	}
	return e.csv.WriteSimpleCSV(path, RatingDistributionColumns, records)
}
