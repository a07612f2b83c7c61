package domain

// User is a cleaned user profile record
type User struct {
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	NumRatingsPages int64  `json:"num_ratings_pages"`
	NumReviews      int64  `json:"num_reviews"`

	Extra map[string]string `json:"extra,omitempty"`
}
