package ingest

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is a raw export held as an all-string dataframe. Values are kept
// exactly as read; coercion happens in the cleaning stage.
type Table struct {
	// Source is the file the table was read from
	Source string
	// SkippedLines counts malformed lines dropped while reading
	SkippedLines int

	columns []string
	frame   dataframe.DataFrame
	rows    int
}

// NewTable builds a table from a header and its rows. Short rows are padded
// with empty cells.
func NewTable(source string, columns []string, records [][]string) (*Table, error) {
	t := &Table{Source: source, columns: append([]string(nil), columns...), rows: len(records)}
	if len(records) == 0 {
		return t, nil
	}

	all := make([][]string, 0, len(records)+1)
	all = append(all, t.columns)
	for _, rec := range records {
		if len(rec) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, rec)
			rec = padded
		}
		all = append(all, rec[:len(columns)])
	}

	frame := dataframe.LoadRecords(all,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if frame.Err != nil {
		return nil, frame.Err
	}
	t.frame = frame
	t.columns = frame.Names()
	return t, nil
}

// Columns returns the header in file order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return t.rows
}

// HasColumn reports whether the header contains name
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of one column. ok is false when the header has
// no such column.
func (t *Table) Column(name string) (values []string, ok bool) {
	if !t.HasColumn(name) {
		return nil, false
	}
	if t.rows == 0 {
		return []string{}, true
	}
	return t.frame.Col(name).Records(), true
}

// Records returns the data rows, header excluded
func (t *Table) Records() [][]string {
	if t.rows == 0 {
		return [][]string{}
	}
	return t.frame.Records()[1:]
}

// Subset returns a table holding only the rows at indexes, in that order
func (t *Table) Subset(indexes []int) *Table {
	out := &Table{Source: t.Source, SkippedLines: t.SkippedLines, columns: t.Columns(), rows: len(indexes)}
	if len(indexes) > 0 {
		out.frame = t.frame.Subset(indexes)
	}
	return out
}

// DropDuplicateRows removes rows identical to an earlier row, keeping the
// first occurrence. It returns the number of rows removed.
func (t *Table) DropDuplicateRows() (*Table, int) {
	records := t.Records()
	seen := make(map[string]struct{}, len(records))
	keep := make([]int, 0, len(records))
	for i, rec := range records {
		key := strings.Join(rec, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == len(records) {
		return t, 0
	}
	return t.Subset(keep), len(records) - len(keep)
}
