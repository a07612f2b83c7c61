package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/config"
	"filmstats/internal/shared/testutil"
	"filmstats/pkg/contracts/domain"
)

func rated(movieID, userID string, val int, title string, year *int, genres ...string) domain.RatedMovie {
	return domain.RatedMovie{
		Rating:       domain.Rating{MovieID: movieID, UserID: userID, RatingVal: val},
		MovieTitle:   title,
		YearReleased: year,
		Genres:       genres,
	}
}

// mergedFixture mirrors the merged rows produced from the shared fixtures
func mergedFixture() []domain.RatedMovie {
	return []domain.RatedMovie{
		rated("alpha", "u1", 8, "Alpha", domain.IntPtr(2001), "Drama", "Comedy"),
		rated("alpha", "u2", 6, "Alpha", domain.IntPtr(2001), "Drama", "Comedy"),
		rated("beta", "u1", 10, "Beta", domain.IntPtr(1999), "Drama"),
		rated("gamma", "u2", 10, "Gamma", domain.IntPtr(2010)),
		rated("delta", "u3", 4, "Delta", nil, "Horror", "Thriller"),
		rated("alpha", "u3", 7, "Alpha", domain.IntPtr(2001), "Drama", "Comedy"),
	}
}

func TestComputeMovieAggregates(t *testing.T) {
	aggs := ComputeMovieAggregates(mergedFixture())
	require.Len(t, aggs, 4)

	ids := make([]string, len(aggs))
	for i, a := range aggs {
		ids[i] = a.MovieID
	}
	assert.Equal(t, []string{"alpha", "beta", "delta", "gamma"}, ids)

	alpha := aggs[0]
	assert.Equal(t, "Alpha", alpha.MovieTitle)
	assert.Equal(t, []string{"Drama", "Comedy"}, alpha.Genres)
	assert.Equal(t, int64(3), alpha.RatingCount)
	assert.Equal(t, 7.0, alpha.RatingMean)
	assert.Equal(t, 7.0, alpha.RatingMedian)
	assert.Equal(t, 1.0, alpha.RatingStd)
	assert.Equal(t, 6, alpha.RatingMin)
	assert.Equal(t, 8, alpha.RatingMax)
	assert.Equal(t, int64(3), alpha.UserCount)
	require.NotNil(t, alpha.YearReleased)
	assert.Equal(t, 2001, *alpha.YearReleased)

	delta := aggs[2]
	assert.Equal(t, 4.0, delta.RatingMean)
	assert.Equal(t, 0.0, delta.RatingStd, "single rating has zero deviation")
	assert.Nil(t, delta.YearReleased)

	gamma := aggs[3]
	assert.Equal(t, []string{}, gamma.Genres)
	assert.Equal(t, 10, gamma.RatingMax)
}

func TestComputeMovieAggregatesRounding(t *testing.T) {
	rows := []domain.RatedMovie{
		rated("m", "a", 10, "M", nil),
		rated("m", "b", 9, "M", nil),
		rated("m", "c", 9, "M", nil),
	}
	aggs := ComputeMovieAggregates(rows)
	require.Len(t, aggs, 1)
	assert.Equal(t, 9.333, aggs[0].RatingMean)
	assert.Equal(t, 9.0, aggs[0].RatingMedian)
	assert.Equal(t, 0.577, aggs[0].RatingStd)
}

func TestComputeMovieAggregatesFirstNonEmptyMetadata(t *testing.T) {
	rows := []domain.RatedMovie{
		rated("m", "", 5, "", nil),
		rated("m", "", 7, "Later", domain.IntPtr(1990)),
	}
	rows[1].OriginalLanguage = "de"

	aggs := ComputeMovieAggregates(rows)
	require.Len(t, aggs, 1)
	assert.Equal(t, "Later", aggs[0].MovieTitle)
	assert.Equal(t, "de", aggs[0].OriginalLanguage)
	require.NotNil(t, aggs[0].YearReleased)
	assert.Equal(t, 1990, *aggs[0].YearReleased)
	assert.Equal(t, int64(0), aggs[0].UserCount, "blank user ids are not counted")
}

func TestComputeMovieAggregatesEmpty(t *testing.T) {
	assert.Empty(t, ComputeMovieAggregates(nil))
}

func TestSummarize(t *testing.T) {
	aggs := ComputeMovieAggregates(mergedFixture())

	tests := []struct {
		name       string
		minRatings int64
		limit      int
		wantTop    []string
	}{
		{name: "single ratings qualify", minRatings: 1, limit: 5, wantTop: []string{"beta", "gamma", "alpha", "delta"}},
		{name: "limit applied", minRatings: 1, limit: 2, wantTop: []string{"beta", "gamma"}},
		{name: "threshold filters", minRatings: 3, limit: 5, wantTop: []string{"alpha"}},
		{name: "nothing qualifies", minRatings: 100, limit: 5, wantTop: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(aggs, tt.minRatings, tt.limit)
			assert.Equal(t, 4, summary.MoviesWithRatings)
			assert.Equal(t, 1.0, summary.MedianRatingCount)
			assert.Equal(t, 1.0, summary.MedianUserCount)
			assert.Equal(t, 7.75, summary.GlobalMeanRating)
			assert.Equal(t, tt.minRatings, summary.TopRatedMin)

			got := make([]string, len(summary.TopRated))
			for i, a := range summary.TopRated {
				got[i] = a.MovieID
			}
			assert.Equal(t, tt.wantTop, got)
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, 100, 5)
	assert.Equal(t, 0, summary.MoviesWithRatings)
	assert.Equal(t, 0.0, summary.MedianRatingCount)
	assert.Equal(t, 0.0, summary.GlobalMeanRating)
	assert.Empty(t, summary.TopRated)
}

func TestAggregatorRun(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	agg := NewAggregator(logger, ConfigFromPipeline(config.Default().Pipeline))

	aggs, summary, err := agg.Run(context.Background(), mergedFixture())
	require.NoError(t, err)
	assert.Len(t, aggs, 4)
	assert.Equal(t, int64(100), summary.TopRatedMin)
	assert.Empty(t, summary.TopRated)
	assert.True(t, logs.ContainsMessage("movie aggregates computed"))
}

func TestAggregatorZeroThresholdKeepsEveryMovie(t *testing.T) {
	p := config.Default().Pipeline
	p.TopRatedMinRatings = 0
	cfg := ConfigFromPipeline(p)

	aggs, summary, err := NewAggregator(nil, cfg).Run(context.Background(), mergedFixture())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TopRatedMin)
	assert.Len(t, summary.TopRated, 4)
	assert.Equal(t, summary, cfg.Summarize(aggs))
}

func TestAggregatorRunCancelled(t *testing.T) {
	agg := NewAggregator(nil, Config{TopRatedMinRatings: 1, TopRatedLimit: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := agg.Run(ctx, mergedFixture())
	assert.ErrorIs(t, err, context.Canceled)
}
