package ingest

import (
	"fmt"

	apperrors "filmstats/internal/errors"
)

// ColumnIndex maps header names to positions for row-wise access. The first
// occurrence of a repeated name wins.
type ColumnIndex map[string]int

// IndexColumns builds a ColumnIndex for a header
func IndexColumns(columns []string) ColumnIndex {
	idx := make(ColumnIndex, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// Get returns the cell of column in rec, or "" when the column is absent
func (c ColumnIndex) Get(rec []string, column string) string {
	if i, ok := c[column]; ok && i < len(rec) {
		return rec[i]
	}
	return ""
}

func (c ColumnIndex) require(path string, columns ...string) error {
	for _, col := range columns {
		if _, ok := c[col]; !ok {
			return apperrors.NewParsingError(fmt.Sprintf("missing column %q", col), nil).WithContext("path", path)
		}
	}
	return nil
}
