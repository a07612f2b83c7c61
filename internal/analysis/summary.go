package analysis

import (
	"sort"
	"strconv"

	"filmstats/internal/dataprocessing"
	"filmstats/pkg/contracts/domain"
)

// StatPrecision is the number of decimals kept for category averages
const StatPrecision = 3

// SharePrecision is the number of decimals kept for distribution shares
const SharePrecision = 4

type bucket struct {
	key      string
	movies   int
	total    int64
	weighted float64
	means    []float64
}

// accumulator groups aggregates by category and remembers first-seen order
type accumulator struct {
	order   []*bucket
	buckets map[string]*bucket
}

func newAccumulator() *accumulator {
	return &accumulator{buckets: make(map[string]*bucket)}
}

func (a *accumulator) add(key string, agg *domain.MovieAggregate) {
	b, ok := a.buckets[key]
	if !ok {
		b = &bucket{key: key}
		a.buckets[key] = b
		a.order = append(a.order, b)
	}
	b.movies++
	b.total += agg.RatingCount
	b.weighted += agg.RatingMean * float64(agg.RatingCount)
	b.means = append(b.means, agg.RatingMean)
}

func (a *accumulator) stats() []domain.CategoryStats {
	out := make([]domain.CategoryStats, len(a.order))
	for i, b := range a.order {
		avg := 0.0
		if b.total > 0 {
			avg = b.weighted / float64(b.total)
		}
		out[i] = domain.CategoryStats{
			Key:               b.key,
			MovieCount:        b.movies,
			TotalRatings:      b.total,
			AvgRating:         dataprocessing.Round(avg, StatPrecision),
			MedianMovieRating: dataprocessing.Round(dataprocessing.Median(b.means), StatPrecision),
		}
	}
	return out
}

func sortByVolume(stats []domain.CategoryStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalRatings > stats[j].TotalRatings
	})
}

// GenreSummary computes per-genre statistics sorted by total ratings, ties in
// first-seen order. A movie listing a genre twice counts twice for it.
func GenreSummary(aggs []domain.MovieAggregate) domain.GenreAnalysis {
	acc := newAccumulator()
	withGenre := make(map[string]struct{})
	for i := range aggs {
		agg := &aggs[i]
		for _, genre := range agg.Genres {
			acc.add(genre, agg)
			withGenre[agg.MovieID] = struct{}{}
		}
	}
	genres := acc.stats()
	sortByVolume(genres)
	return domain.GenreAnalysis{Genres: genres, MoviesWithGenre: len(withGenre)}
}

// YearSummary computes per-release-year statistics sorted by year ascending.
// Movies without a year are only counted.
func YearSummary(aggs []domain.MovieAggregate) domain.YearAnalysis {
	acc := newAccumulator()
	years := make(map[string]int)
	undated := 0
	for i := range aggs {
		agg := &aggs[i]
		if agg.YearReleased == nil {
			undated++
			continue
		}
		key := strconv.Itoa(*agg.YearReleased)
		years[key] = *agg.YearReleased
		acc.add(key, agg)
	}
	stats := acc.stats()
	sort.SliceStable(stats, func(i, j int) bool {
		return years[stats[i].Key] < years[stats[j].Key]
	})
	return domain.YearAnalysis{Years: stats, MoviesUndated: undated}
}

// LanguageSummary computes per-original-language statistics sorted by total
// ratings. A blank language is reported as "unknown".
func LanguageSummary(aggs []domain.MovieAggregate) []domain.LanguageStats {
	acc := newAccumulator()
	for i := range aggs {
		lang := aggs[i].OriginalLanguage
		if lang == "" {
			lang = domain.UnknownLanguage
		}
		acc.add(lang, &aggs[i])
	}
	stats := acc.stats()
	sortByVolume(stats)
	return stats
}

// RatingDistribution counts each rating value in ascending order
func RatingDistribution(rows []domain.RatedMovie) []domain.RatingBucket {
	counts := make(map[int]int64)
	for i := range rows {
		counts[rows[i].RatingVal]++
	}

	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Ints(values)

	total := float64(len(rows))
	out := make([]domain.RatingBucket, len(values))
	for i, v := range values {
		out[i] = domain.RatingBucket{
			RatingVal:   v,
			RatingCount: counts[v],
			Share:       dataprocessing.Round(float64(counts[v])/total, SharePrecision),
		}
	}
	return out
}

// TopByVolume returns the first n entries with at least threshold ratings,
// keeping the input order
func TopByVolume(stats []domain.CategoryStats, threshold int64, n int) []domain.CategoryStats {
	out := []domain.CategoryStats{}
	if n <= 0 {
		return out
	}
	for _, s := range stats {
		if len(out) == n {
			break
		}
		if s.TotalRatings >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// TopByRating returns the n best averages among entries with at least
// threshold ratings
func TopByRating(stats []domain.CategoryStats, threshold int64, n int) []domain.CategoryStats {
	eligible := make([]domain.CategoryStats, 0, len(stats))
	for _, s := range stats {
		if s.TotalRatings >= threshold {
			eligible = append(eligible, s)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].AvgRating > eligible[j].AvgRating
	})
	if n < 0 {
		n = 0
	}
	if len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}
