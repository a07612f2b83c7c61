package cleaning

import (
	"math"

	"filmstats/internal/dataprocessing"
	"filmstats/internal/ingest"
	"filmstats/pkg/contracts/domain"
)

var ratingColumns = knownSet(domain.ColMovieID, domain.ColUserID, domain.ColRatingVal)

// CleanRatings drops ratings without a movie_id or a numeric rating_val and
// clips the rest to the 0-10 scale.
func CleanRatings(table *ingest.Table) ([]domain.Rating, *Report, error) {
	if err := requireColumns(table, "ratings", domain.ColMovieID, domain.ColRatingVal); err != nil {
		return nil, nil, err
	}
	report := NewReport("Ratings")
	columns := table.Columns()
	idx := ingest.IndexColumns(columns)
	records := table.Records()

	withID := make([][]string, 0, len(records))
	for _, rec := range records {
		if !dataprocessing.IsMissing(idx.Get(rec, domain.ColMovieID)) {
			withID = append(withID, rec)
		}
	}
	if missing := len(records) - len(withID); missing > 0 {
		report.Add("Removed %d ratings lacking a movie_id.", missing)
	}

	ratings := make([]domain.Rating, 0, len(withID))
	for _, rec := range withID {
		val, ok := dataprocessing.ToFloat(idx.Get(rec, domain.ColRatingVal))
		if !ok {
			continue
		}
		ratings = append(ratings, domain.Rating{
			MovieID:   idx.Get(rec, domain.ColMovieID),
			UserID:    blankIfMissing(idx.Get(rec, domain.ColUserID)),
			RatingVal: ClipRating(val),
			Extra:     extras(columns, ratingColumns, rec),
		})
	}
	if invalid := len(withID) - len(ratings); invalid > 0 {
		report.Add("Dropped %d rows with invalid rating values.", invalid)
	}

	report.Add("Ratings cleaned: %d rows remaining.", len(ratings))
	return ratings, report, nil
}

// ClipRating bounds v to the rating scale and truncates it to an integer
func ClipRating(v float64) int {
	v = math.Max(domain.MinRating, math.Min(domain.MaxRating, v))
	return int(math.Trunc(v))
}
