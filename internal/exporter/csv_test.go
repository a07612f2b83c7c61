package exporter

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(logger), t.TempDir()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()
		r = gz
	}
	records, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		options  WriteOptions
		validate func(t *testing.T, path string)
	}{
		{
			name: "plain csv with quoting",
			file: "plain.csv",
			options: WriteOptions{
				Headers: []string{"movie_id", "genres"},
				Records: [][]string{{"alpha", "['Drama', 'Comedy']"}},
			},
			validate: func(t *testing.T, path string) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, "movie_id,genres\nalpha,\"['Drama', 'Comedy']\"\n", string(data))
			},
		},
		{
			name: "gzip by suffix",
			file: "nested/dir/ratings.csv.gz",
			options: WriteOptions{
				Headers: []string{"movie_id", "rating_val"},
				Records: [][]string{{"alpha", "8"}, {"beta", "10"}},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, [][]string{{"movie_id", "rating_val"}, {"alpha", "8"}, {"beta", "10"}}, readCSV(t, path))
			},
		},
		{
			name: "bom prefix",
			file: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"a"},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, path string) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, dir := setupTestEnv(t)
			path := filepath.Join(dir, tt.file)

			require.NoError(t, writer.WriteCSV(path, tt.options))
			tt.validate(t, path)

			leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".*"))
			assert.Empty(t, leftovers)
		})
	}
}

func TestStreamWriterReplacesTarget(t *testing.T) {
	writer, dir := setupTestEnv(t)
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	stream, err := writer.CreateStreamWriter(path, []string{"x"})
	require.NoError(t, err)

	_, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"old"}}, readCSV(t, path))

	require.NoError(t, stream.WriteRecord([]string{"1"}))
	require.NoError(t, stream.WriteRecord([]string{"2"}))
	assert.Equal(t, 2, stream.Rows())
	require.NoError(t, stream.Close())

	assert.Equal(t, [][]string{{"x"}, {"1"}, {"2"}}, readCSV(t, path))
}

func TestTableExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	exp := NewTableExporter(logger)
	dir := t.TempDir()

	t.Run("movies keep source column order and extras", func(t *testing.T) {
		path := filepath.Join(dir, "movies_clean.csv")
		movies := []domain.Movie{{
			ID:               "alpha",
			Title:            "Alpha",
			Genres:           []string{"Drama"},
			OriginalLanguage: "en",
			YearReleased:     domain.IntPtr(2001),
			Runtime:          100,
			VoteAverage:      7.5,
			VoteCount:        200,
			Extra:            map[string]string{"imdb_id": "tt1"},
		}}
		columns := []string{"imdb_id", "movie_id", "movie_title", "genres", "year_released", "runtime", "vote_average", "vote_count"}

		require.NoError(t, exp.WriteMovies(path, columns, movies))
		assert.Equal(t, [][]string{
			columns,
			{"tt1", "alpha", "Alpha", "['Drama']", "2001", "100.0", "7.5", "200"},
		}, readCSV(t, path))
	})

	t.Run("rated movies append movie columns", func(t *testing.T) {
		path := filepath.Join(dir, "ratings_with_movies.csv.gz")
		rows := []domain.RatedMovie{{
			Rating:           domain.Rating{MovieID: "alpha", UserID: "u1", RatingVal: 8, Extra: map[string]string{"_id": "r1"}},
			MovieTitle:       "Alpha",
			Genres:           []string{"Drama", "Comedy"},
			OriginalLanguage: "en",
			Runtime:          100,
			VoteAverage:      7.5,
			VoteCount:        200,
		}}
		columns := append([]string{"_id", "movie_id", "rating_val", "user_id"}, MergedMovieColumns...)

		require.NoError(t, exp.WriteRatedMovies(path, columns, rows))
		records := readCSV(t, path)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"r1", "alpha", "8", "u1", "Alpha", "", "['Drama', 'Comedy']", "en", "100.0", "7.5", "200"}, records[1])
	})

	t.Run("aggregates", func(t *testing.T) {
		path := filepath.Join(dir, "movie_aggregates.csv")
		aggs := []domain.MovieAggregate{{
			MovieID: "alpha", MovieTitle: "Alpha", YearReleased: domain.IntPtr(2001), OriginalLanguage: "en",
			Genres: []string{"Drama"}, Runtime: 100, TMDBVoteAverage: 7.5, TMDBVoteCount: 200,
			RatingCount: 3, RatingMean: 7, RatingMedian: 7, RatingStd: 1, RatingMin: 6, RatingMax: 8, UserCount: 3,
		}}

		require.NoError(t, exp.WriteAggregates(path, aggs))
		records := readCSV(t, path)
		assert.Equal(t, AggregateColumns, records[0])
		assert.Equal(t, []string{"alpha", "Alpha", "2001", "en", "['Drama']", "100.0", "7.5", "200", "3", "7.0", "7.0", "1.0", "6", "8", "3"}, records[1])
	})

	t.Run("category stats and distribution", func(t *testing.T) {
		statsPath := filepath.Join(dir, "genre_stats.csv")
		require.NoError(t, exp.WriteCategoryStats(statsPath, "genre", []domain.CategoryStats{
			{Key: "Drama", MovieCount: 2, TotalRatings: 4, AvgRating: 7.75, MedianMovieRating: 8.5},
		}))
		assert.Equal(t, [][]string{
			{"genre", "movie_count", "total_ratings", "avg_rating", "median_movie_rating"},
			{"Drama", "2", "4", "7.75", "8.5"},
		}, readCSV(t, statsPath))

		distPath := filepath.Join(dir, "rating_distribution.csv")
		require.NoError(t, exp.WriteRatingDistribution(distPath, []domain.RatingBucket{{RatingVal: 10, RatingCount: 2, Share: 0.3333}}))
		assert.Equal(t, [][]string{{"rating_val", "rating_count", "share"}, {"10", "2", "0.3333"}}, readCSV(t, distPath))
	})
}
