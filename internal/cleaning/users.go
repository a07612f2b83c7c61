package cleaning

import (
	"filmstats/internal/dataprocessing"
	"filmstats/internal/ingest"
	"filmstats/pkg/contracts/domain"
)

var userColumns = knownSet(domain.ColUsername, domain.ColDisplayName, domain.ColNumRatingsPages, domain.ColNumReviews)

// CleanUsers fills blank display names from usernames and coerces the
// counters, defaulting to zero.
func CleanUsers(table *ingest.Table) ([]domain.User, *Report, error) {
	if err := requireColumns(table, "users", domain.ColUsername); err != nil {
		return nil, nil, err
	}
	report := NewReport("Users")
	columns := table.Columns()
	idx := ingest.IndexColumns(columns)
	records := table.Records()

	users := make([]domain.User, len(records))
	filled := 0
	for i, rec := range records {
		u := domain.User{
			Username:        blankIfMissing(idx.Get(rec, domain.ColUsername)),
			DisplayName:     idx.Get(rec, domain.ColDisplayName),
			NumRatingsPages: dataprocessing.ToIntDefault(idx.Get(rec, domain.ColNumRatingsPages), 0),
			NumReviews:      dataprocessing.ToIntDefault(idx.Get(rec, domain.ColNumReviews), 0),
			Extra:           extras(columns, userColumns, rec),
		}
		if dataprocessing.IsMissing(u.DisplayName) {
			u.DisplayName = u.Username
			filled++
		}
		users[i] = u
	}
	if filled > 0 {
		report.Add("Filled %d blank display names with usernames.", filled)
	}

	report.Add("Users cleaned: %d rows remaining.", len(users))
	return users, report, nil
}
