package report

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"

	"filmstats/internal/aggregate"
	"filmstats/internal/analysis"
	"filmstats/internal/cleaning"
	"filmstats/internal/config"
	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func fixtureRows() []domain.RatedMovie {
	row := func(id, user string, val int, title string, year *int, lang string, genres ...string) domain.RatedMovie {
		return domain.RatedMovie{
			Rating:           domain.Rating{MovieID: id, UserID: user, RatingVal: val},
			MovieTitle:       title,
			YearReleased:     year,
			OriginalLanguage: lang,
			Genres:           genres,
		}
	}
	return []domain.RatedMovie{
		row("alpha", "u1", 8, "Alpha", domain.IntPtr(2001), "en", "Drama", "Comedy"),
		row("alpha", "u2", 6, "Alpha", domain.IntPtr(2001), "en", "Drama", "Comedy"),
		row("beta", "u1", 10, "Beta", domain.IntPtr(1999), "fr", "Drama"),
		row("gamma", "u2", 10, "Gamma", domain.IntPtr(2010), domain.UnknownLanguage),
		row("delta", "u3", 4, "Delta", nil, "ja", "Horror", "Thriller"),
		row("alpha", "u3", 7, "Alpha", domain.IntPtr(2001), "en", "Drama", "Comedy"),
	}
}

func fixtureInput(t *testing.T) Input {
	t.Helper()
	rows := fixtureRows()
	aggs := aggregate.ComputeMovieAggregates(rows)
	result, err := analysis.NewAnalyzer(nil).Run(context.Background(), aggs, rows)
	require.NoError(t, err)
	return Input{
		Aggregates: aggs,
		Summary:    aggregate.Summarize(aggs, 1, 2),
		Analysis:   result,
	}
}

func TestCleaningMarkdown(t *testing.T) {
	movies := cleaning.NewReport("Movies")
	movies.Add("Movies cleaned: %d rows remaining.", 4)
	ratings := cleaning.NewReport("Ratings")
	ratings.Add("Ratings cleaned: %d rows remaining.", 7)

	got := CleaningMarkdown([]*cleaning.Report{movies, ratings}, domain.MergeStats{
		RatingsRows: 7, MergedRows: 6, DroppedUnmatched: 1,
	})

	want := "# Data Cleaning Report\n" +
		"\n## Movies\n- Movies cleaned: 4 rows remaining.\n" +
		"\n## Ratings\n- Ratings cleaned: 7 rows remaining.\n" +
		"\n## Ratings ↔ Movies Merge\n" +
		"\n- Ratings rows before merge: 7\n- Ratings rows after merge: 6\n- Ratings without matching movie_id: 1\n"
	assert.Equal(t, want, got)
}

func TestAggregatesMarkdown(t *testing.T) {
	in := fixtureInput(t)

	want := "# Movie Aggregates Summary\n" +
		"\n- Movies with ratings: 4\n" +
		"\n- Median rating count: 1\n" +
		"\n- Median user count: 1\n" +
		"\n- Mean user rating (global): 7.75\n" +
		"\n## Top Rated (≥1 ratings)\n" +
		"\n- Beta: 10.0 average from 1 ratings\n" +
		"\n- Gamma: 10.0 average from 1 ratings\n"
	assert.Equal(t, want, AggregatesMarkdown(in.Summary))
}

func TestAggregatesMarkdownWithoutTopRated(t *testing.T) {
	got := AggregatesMarkdown(aggregate.Summarize(nil, 100, 5))
	assert.NotContains(t, got, "Top Rated")
	assert.True(t, strings.HasSuffix(got, "- Mean user rating (global): 0.00\n"))
}

func TestASCIIHistogram(t *testing.T) {
	dist := analysis.RatingDistribution(fixtureRows())

	want := []string{
		"```\nRating | Distribution",
		"------ | ------------",
		"     4 | #####      16.67% (1)",
		"     6 | #####      16.67% (1)",
		"     7 | #####      16.67% (1)",
		"     8 | #####      16.67% (1)",
		"    10 | ########## 33.33% (2)",
		"```",
	}
	assert.Equal(t, want, ASCIIHistogram(dist, 10))
	assert.Nil(t, ASCIIHistogram(nil, 10))
}

func TestGenreMarkdown(t *testing.T) {
	in := fixtureInput(t)
	opts := GenreOptions{Threshold: 2, TopN: 10, HistogramWidth: 10}

	got := GenreMarkdown(in.Analysis.Genres, in.Analysis.RatingDistribution, opts)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "# Genre Analysis Report", lines[0])
	for _, want := range []string{
		"- Genres evaluated: 4",
		"- Movies with at least one genre: 3",
		"- Genre assignments across all movies: 5",
		"## Top Genres by Rating Volume (≥ 2 ratings)",
		"- Drama: 4 ratings across 2 movies (avg: 7.75)",
		"- Comedy: 3 ratings across 1 movies (avg: 7.0)",
		"## Highest Rated Genres (≥ 2 ratings)",
		"- Drama: average 7.75 from 4 ratings (median movie: 8.5)",
		"- 10: 2 ratings (33.33%)",
		"    10 | ########## 33.33% (2)",
	} {
		assert.Contains(t, lines, want)
	}
	assert.NotContains(t, got, "Horror:")
	assert.True(t, strings.HasSuffix(got, "```\n"))
}

func TestGenreMarkdownBelowThreshold(t *testing.T) {
	in := fixtureInput(t)

	got := GenreMarkdown(in.Analysis.Genres, nil, DefaultGenreOptions())
	assert.Contains(t, got, "## Top Genres by Rating Volume (≥ 5,000 ratings)\n")
	assert.Equal(t, 2, strings.Count(got, "- No genres reached the minimum rating threshold."))
	assert.NotContains(t, got, "```")
}

func TestYearLanguageMarkdown(t *testing.T) {
	in := fixtureInput(t)

	got := YearLanguageMarkdown(in.Analysis.Years, in.Analysis.Languages)
	assert.Contains(t, got, "- Release years covered: 3\n")
	assert.Contains(t, got, "- Movies without a release year: 1\n")
	assert.Contains(t, got, "## Ratings by Release Year")
	assert.Contains(t, got, "## Ratings by Original Language")
	assert.Contains(t, got, "Median movie rating")
	assert.Contains(t, got, "2001")
	assert.Contains(t, got, domain.UnknownLanguage)

	empty := YearLanguageMarkdown(domain.YearAnalysis{}, nil)
	assert.Equal(t, 2, strings.Count(empty, "_No rated movies._"))
}

func TestCharts(t *testing.T) {
	in := fixtureInput(t)
	dir := t.TempDir()

	t.Run("rating distribution", func(t *testing.T) {
		path := filepath.Join(dir, "dist.png")
		ok, err := RatingDistributionChart(path, in.Analysis.RatingDistribution)
		require.NoError(t, err)
		assert.True(t, ok)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic))
	})

	t.Run("top genres", func(t *testing.T) {
		path := filepath.Join(dir, "genres.png")
		ok, err := TopGenresChart(path, in.Analysis.Genres.Genres, 1, 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.FileExists(t, path)
	})

	t.Run("empty inputs skip", func(t *testing.T) {
		path := filepath.Join(dir, "skipped.png")
		ok, err := RatingDistributionChart(path, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = TopGenresChart(path, in.Analysis.Genres.Genres, 20000, 10)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoFileExists(t, path)
	})
}

func TestWriteWorkbook(t *testing.T) {
	in := fixtureInput(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, WriteWorkbook(path, WorkbookInput{Aggregates: in.Aggregates, Analysis: in.Analysis}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAggregates, SheetGenres, SheetYears, SheetLanguages, SheetRatings}, f.GetSheetList())

	rows, err := f.GetRows(SheetGenres)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"genre", "movie_count", "total_ratings", "avg_rating", "median_movie_rating"}, rows[0])
	assert.Equal(t, []string{"Drama", "2", "4", "7.75", "8.5"}, rows[1])

	aggRows, err := f.GetRows(SheetAggregates)
	require.NoError(t, err)
	assert.Len(t, aggRows, 5)
	assert.Equal(t, "alpha", aggRows[1][0])

	count, err := f.GetCellValue(SheetRatings, "B6")
	require.NoError(t, err)
	assert.Equal(t, "2", count)
}

func readBSONDump(t *testing.T, path string) []domain.MovieAggregate {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out []domain.MovieAggregate
	for len(data) > 0 {
		require.GreaterOrEqual(t, len(data), 4)
		size := int(binary.LittleEndian.Uint32(data))
		require.LessOrEqual(t, size, len(data))
		var agg domain.MovieAggregate
		require.NoError(t, bson.Unmarshal(data[:size], &agg))
		out = append(out, agg)
		data = data[size:]
	}
	return out
}

func TestWriteBSONDump(t *testing.T) {
	in := fixtureInput(t)
	path := filepath.Join(t.TempDir(), "aggs.bson")

	require.NoError(t, WriteBSONDump(path, in.Aggregates))

	docs := readBSONDump(t, path)
	require.Len(t, docs, 4)
	assert.Equal(t, "alpha", docs[0].MovieID)
	assert.Equal(t, int64(3), docs[0].RatingCount)
	assert.Equal(t, 7.0, docs[0].RatingMean)
	assert.Nil(t, docs[2].YearReleased)
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	return config.NewPaths(config.PathsConfig{
		BaseDir:      t.TempDir(),
		DataDir:      config.DefaultDataDir,
		ProcessedDir: config.DefaultProcessedDir,
		ReportsDir:   config.DefaultReportsDir,
		LogsDir:      config.DefaultLogsDir,
	})
}

func TestReporterRun(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	paths := testPaths(t)
	reporter := NewReporter(logger, paths, Options{
		Genre:          GenreOptions{Threshold: 1},
		ChartThreshold: 1,
		Charts:         true,
		Workbook:       true,
		BSON:           true,
	})

	written, err := reporter.Run(context.Background(), fixtureInput(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		paths.AggregatesSummary,
		paths.GenreReport,
		paths.YearLanguageReport,
		paths.RatingChart,
		paths.TopGenresChart,
		paths.Workbook,
		paths.AggregatesBSON,
	}, written)
	for _, p := range written {
		assert.FileExists(t, p)
	}
	assert.True(t, logs.ContainsMessage("bson dump written"))
	testutil.AssertNoErrors(t, logs)
}

func TestReporterRunOptionalOutputsDisabled(t *testing.T) {
	paths := testPaths(t)
	reporter := NewReporter(nil, paths, Options{Genre: DefaultGenreOptions(), ChartThreshold: 20000})

	written, err := reporter.Run(context.Background(), fixtureInput(t))
	require.NoError(t, err)
	assert.Equal(t, []string{paths.AggregatesSummary, paths.GenreReport, paths.YearLanguageReport}, written)
	assert.NoFileExists(t, paths.Workbook)
}

func TestReporterWriteCleaning(t *testing.T) {
	paths := testPaths(t)
	reporter := NewReporter(nil, paths, Options{})

	report := cleaning.NewReport("Users")
	report.Add("Users cleaned: %d rows remaining.", 3)
	path, err := reporter.WriteCleaning(context.Background(), &cleaning.Result{
		Reports:    []*cleaning.Report{report},
		MergeStats: domain.MergeStats{RatingsRows: 1, MergedRows: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, paths.CleaningReport, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Users\n- Users cleaned: 3 rows remaining.\n")
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Default())
	assert.Equal(t, int64(5000), opts.Genre.Threshold)
	assert.Equal(t, int64(20000), opts.ChartThreshold)
	assert.Equal(t, 10, opts.ChartTopN)
	assert.True(t, opts.Charts)
}
