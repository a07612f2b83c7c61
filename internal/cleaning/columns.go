package cleaning

import (
	"fmt"

	"filmstats/internal/dataprocessing"
	apperrors "filmstats/internal/errors"
	"filmstats/internal/ingest"
)

// requireColumns fails with a validation error naming the first absent column
func requireColumns(table *ingest.Table, dataset string, columns ...string) error {
	for _, col := range columns {
		if !table.HasColumn(col) {
			return apperrors.NewAppValidationError(fmt.Sprintf("%s table has no %q column", dataset, col)).
				WithContext("path", table.Source)
		}
	}
	return nil
}

// extras collects the cells of columns the model does not interpret. Missing
// markers become empty cells.
func extras(columns []string, known map[string]bool, rec []string) map[string]string {
	var out map[string]string
	for i, col := range columns {
		if known[col] || i >= len(rec) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[col] = blankIfMissing(rec[i])
	}
	return out
}

func blankIfMissing(value string) string {
	if dataprocessing.IsMissing(value) {
		return ""
	}
	return value
}

func knownSet(columns ...string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return set
}
