package domain

// Category kinds used to key grouped statistics
const (
	CategoryGenre    = "genre"
	CategoryYear     = "year"
	CategoryLanguage = "language"
)

// CategoryStats holds grouped rating statistics for one categorical key
type CategoryStats struct {
	Key               string  `json:"key"`
	MovieCount        int     `json:"movie_count"`
	TotalRatings      int64   `json:"total_ratings"`
	AvgRating         float64 `json:"avg_rating"`
	MedianMovieRating float64 `json:"median_movie_rating"`
}

// GenreStats is CategoryStats keyed by genre
type GenreStats = CategoryStats

// YearStats is CategoryStats keyed by release year
type YearStats = CategoryStats

// LanguageStats is CategoryStats keyed by original language
type LanguageStats = CategoryStats

// RatingBucket is the number of ratings with one rating value
type RatingBucket struct {
	RatingVal   int     `json:"rating_val"`
	RatingCount int64   `json:"rating_count"`
	Share       float64 `json:"share"`
}

// GenreAnalysis bundles the genre summary with its coverage count
type GenreAnalysis struct {
	Genres          []GenreStats `json:"genres"`
	MoviesWithGenre int          `json:"movies_with_genre"`
}

// YearAnalysis bundles the yearly summary with the movies lacking a year
type YearAnalysis struct {
	Years         []YearStats `json:"years"`
	MoviesUndated int         `json:"movies_undated"`
}

// Analysis is the complete output of the analyzer stage
type Analysis struct {
	Genres             GenreAnalysis   `json:"genres"`
	Years              YearAnalysis    `json:"years"`
	Languages          []LanguageStats `json:"languages"`
	RatingDistribution []RatingBucket  `json:"rating_distribution"`
}
