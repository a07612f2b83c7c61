package aggregate

import (
	"sort"

	"filmstats/internal/dataprocessing"
	"filmstats/pkg/contracts/domain"
)

// StatPrecision is the number of decimals kept for mean, median and std
const StatPrecision = 3

type movieGroup struct {
	agg     domain.MovieAggregate
	ratings []float64
	users   map[string]struct{}
	started bool
}

// ComputeMovieAggregates groups merged ratings by movie_id. Metadata comes
// from the first row of each group that has a value for the field. The
// standard deviation is the sample deviation, zero for a single rating.
// Output is sorted by movie_id.
func ComputeMovieAggregates(rows []domain.RatedMovie) []domain.MovieAggregate {
	groups := make(map[string]*movieGroup)
	for i := range rows {
		r := &rows[i]
		g, ok := groups[r.MovieID]
		if !ok {
			g = &movieGroup{users: make(map[string]struct{})}
			g.agg.MovieID = r.MovieID
			groups[r.MovieID] = g
		}
		g.absorb(r)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	aggs := make([]domain.MovieAggregate, len(ids))
	for i, id := range ids {
		aggs[i] = groups[id].finish()
	}
	return aggs
}

func (g *movieGroup) absorb(r *domain.RatedMovie) {
	a := &g.agg
	if !g.started {
		a.Genres = r.Genres
		a.Runtime = r.Runtime
		a.TMDBVoteAverage = r.VoteAverage
		a.TMDBVoteCount = r.VoteCount
		a.RatingMin = r.RatingVal
		a.RatingMax = r.RatingVal
		g.started = true
	}
	if a.MovieTitle == "" {
		a.MovieTitle = r.MovieTitle
	}
	if a.YearReleased == nil && r.YearReleased != nil {
		a.YearReleased = r.YearReleased
	}
	if a.OriginalLanguage == "" {
		a.OriginalLanguage = r.OriginalLanguage
	}

	g.ratings = append(g.ratings, float64(r.RatingVal))
	if r.RatingVal < a.RatingMin {
		a.RatingMin = r.RatingVal
	}
	if r.RatingVal > a.RatingMax {
		a.RatingMax = r.RatingVal
	}
	if r.UserID != "" {
		g.users[r.UserID] = struct{}{}
	}
}

func (g *movieGroup) finish() domain.MovieAggregate {
	a := g.agg
	if a.Genres == nil {
		a.Genres = []string{}
	}
	a.RatingCount = int64(len(g.ratings))
	a.RatingMean = dataprocessing.Round(dataprocessing.Mean(g.ratings), StatPrecision)
	a.RatingMedian = dataprocessing.Round(dataprocessing.Median(g.ratings), StatPrecision)
	a.RatingStd = dataprocessing.Round(dataprocessing.SampleStd(g.ratings), StatPrecision)
	a.UserCount = int64(len(g.users))
	return a
}

// Summarize computes the headline numbers over all aggregates and the top
// `limit` movies by rating_mean among those with at least minRatings
// ratings. Ties keep movie_id order.
func Summarize(aggs []domain.MovieAggregate, minRatings int64, limit int) domain.AggregateSummary {
	summary := domain.AggregateSummary{
		MoviesWithRatings: len(aggs),
		TopRatedMin:       minRatings,
		TopRated:          []domain.MovieAggregate{},
	}
	if len(aggs) == 0 {
		return summary
	}

	counts := make([]float64, len(aggs))
	users := make([]float64, len(aggs))
	means := make([]float64, len(aggs))
	var qualified []domain.MovieAggregate
	for i, a := range aggs {
		counts[i] = float64(a.RatingCount)
		users[i] = float64(a.UserCount)
		means[i] = a.RatingMean
		if a.RatingCount >= minRatings {
			qualified = append(qualified, a)
		}
	}
	summary.MedianRatingCount = dataprocessing.Median(counts)
	summary.MedianUserCount = dataprocessing.Median(users)
	summary.GlobalMeanRating = dataprocessing.Mean(means)

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].RatingMean > qualified[j].RatingMean
	})
	if limit >= 0 && len(qualified) > limit {
		qualified = qualified[:limit]
	}
	if qualified != nil {
		summary.TopRated = qualified
	}
	return summary
}
