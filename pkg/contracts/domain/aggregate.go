package domain

// Columns of movie_aggregates.csv beyond the movie fields
const (
	ColTMDBVoteAverage = "tmdb_vote_average"
	ColTMDBVoteCount   = "tmdb_vote_count"
	ColRatingCount     = "rating_count"
	ColRatingMean      = "rating_mean"
	ColRatingMedian    = "rating_median"
	ColRatingStd       = "rating_std"
	ColRatingMin       = "rating_min"
	ColRatingMax       = "rating_max"
	ColUserCount       = "user_count"
	ColShare           = "share"
)

// MovieAggregate is the per-movie rollup of all ratings of one movie
type MovieAggregate struct {
	MovieID          string   `json:"movie_id" bson:"movie_id"`
	MovieTitle       string   `json:"movie_title" bson:"movie_title"`
	YearReleased     *int     `json:"year_released,omitempty" bson:"year_released,omitempty"`
	OriginalLanguage string   `json:"original_language" bson:"original_language"`
	Genres           []string `json:"genres" bson:"genres"`
	Runtime          float64  `json:"runtime" bson:"runtime"`
	TMDBVoteAverage  float64  `json:"tmdb_vote_average" bson:"tmdb_vote_average"`
	TMDBVoteCount    int64    `json:"tmdb_vote_count" bson:"tmdb_vote_count"`
	RatingCount      int64    `json:"rating_count" bson:"rating_count"`
	RatingMean       float64  `json:"rating_mean" bson:"rating_mean"`
	RatingMedian     float64  `json:"rating_median" bson:"rating_median"`
	RatingStd        float64  `json:"rating_std" bson:"rating_std"`
	RatingMin        int      `json:"rating_min" bson:"rating_min"`
	RatingMax        int      `json:"rating_max" bson:"rating_max"`
	UserCount        int64    `json:"user_count" bson:"user_count"`
}

// AggregateSummary is the headline view over all movie aggregates
type AggregateSummary struct {
	MoviesWithRatings int              `json:"movies_with_ratings"`
	MedianRatingCount float64          `json:"median_rating_count"`
	MedianUserCount   float64          `json:"median_user_count"`
	GlobalMeanRating  float64          `json:"global_mean_rating"`
	TopRatedMin       int64            `json:"top_rated_min_ratings"`
	TopRated          []MovieAggregate `json:"top_rated"`
}
