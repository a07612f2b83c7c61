package domain

import (
	"time"
)

// Column names shared by the raw exports and the processed outputs.
const (
	ColMovieID             = "movie_id"
	ColMovieTitle          = "movie_title"
	ColGenres              = "genres"
	ColProductionCountries = "production_countries"
	ColSpokenLanguages     = "spoken_languages"
	ColOriginalLanguage    = "original_language"
	ColOverview            = "overview"
	ColReleaseDate         = "release_date"
	ColYearReleased        = "year_released"
	ColRuntime             = "runtime"
	ColPopularity          = "popularity"
	ColVoteAverage         = "vote_average"
	ColVoteCount           = "vote_count"

	ColUserID    = "user_id"
	ColRatingVal = "rating_val"

	ColUsername        = "username"
	ColDisplayName     = "display_name"
	ColNumRatingsPages = "num_ratings_pages"
	ColNumReviews      = "num_reviews"
)

// UnknownLanguage is the placeholder for a missing original_language.
const UnknownLanguage = "unknown"

// Movie is a cleaned movie metadata record
type Movie struct {
	ID                  string     `json:"movie_id" validate:"required"`
	Title               string     `json:"movie_title" validate:"required"`
	Genres              []string   `json:"genres"`
	ProductionCountries []string   `json:"production_countries"`
	SpokenLanguages     []string   `json:"spoken_languages"`
	OriginalLanguage    string     `json:"original_language"`
	Overview            string     `json:"overview"`
	ReleaseDate         *time.Time `json:"release_date,omitempty"`
	YearReleased        *int       `json:"year_released,omitempty"`
	Runtime             float64    `json:"runtime"`
	Popularity          float64    `json:"popularity"`
	VoteAverage         float64    `json:"vote_average"`
	VoteCount           int64      `json:"vote_count"`

	// Extra carries source columns this model does not interpret, keyed by header name.
	Extra map[string]string `json:"extra,omitempty"`
}

// HasYear reports whether the release year is known
func (m Movie) HasYear() bool {
	return m.YearReleased != nil
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
