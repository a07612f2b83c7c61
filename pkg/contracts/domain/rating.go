package domain

// Rating bounds after clipping
const (
	MinRating = 0
	MaxRating = 10
)

// Rating is a single user rating of a movie
type Rating struct {
	MovieID   string `json:"movie_id" validate:"required"`
	UserID    string `json:"user_id"`
	RatingVal int    `json:"rating_val" validate:"min=0,max=10"`

	Extra map[string]string `json:"extra,omitempty"`
}

// RatedMovie is a rating joined with the metadata of the rated movie
type RatedMovie struct {
	Rating

	MovieTitle       string   `json:"movie_title"`
	YearReleased     *int     `json:"year_released,omitempty"`
	Genres           []string `json:"genres"`
	OriginalLanguage string   `json:"original_language"`
	Runtime          float64  `json:"runtime"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int64    `json:"vote_count"`
}

// MergeStats describes the outcome of joining ratings with movies
type MergeStats struct {
	RatingsRows      int `json:"ratings_rows"`
	MergedRows       int `json:"merged_rows"`
	DroppedUnmatched int `json:"dropped_unmatched"`
}
