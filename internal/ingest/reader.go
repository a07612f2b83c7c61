package ingest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "filmstats/internal/errors"
)

const utf8BOM = "\ufeff"

// checkEvery is how many rows are read between context checks
const checkEvery = 10000

// LoadOptions controls how a raw table is read
type LoadOptions struct {
	// Kind names the dataset in errors and logs, e.g. "movies"
	Kind string
	// SkipBadLines drops rows with more fields than the header instead of
	// failing the load
	SkipBadLines bool
	// DropDuplicateRows removes exact duplicate rows, keeping the first
	DropDuplicateRows bool
	Logger            *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LoadOptions) kind(path string) string {
	if o.Kind != "" {
		return o.Kind
	}
	return filepath.Base(path)
}

// LoadTable reads a CSV file (gzip-compressed when the name ends in .gz) or
// the first sheet of an .xlsx workbook into a Table.
func LoadTable(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	logger := opts.logger()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewMissingFileError(opts.kind(path)+" file", path)
		}
		return nil, apperrors.NewStorageError("failed to stat input", err).WithContext("path", path)
	}

	var (
		header  []string
		records [][]string
		skipped int
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, records, err = readWorkbook(ctx, path)
	} else {
		header, records, skipped, err = readDelimited(ctx, path, opts.SkipBadLines)
	}
	if err != nil {
		return nil, err
	}

	table, err := NewTable(path, header, records)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to build table", err).WithContext("path", path)
	}
	table.SkippedLines = skipped

	duplicates := 0
	if opts.DropDuplicateRows {
		table, duplicates = table.DropDuplicateRows()
	}

	logger.InfoContext(ctx, "table loaded",
		slog.String("kind", opts.kind(path)),
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(header)),
		slog.Int("skipped_lines", skipped),
		slog.Int("duplicate_rows", duplicates))

	return table, nil
}

func readDelimited(ctx context.Context, path string, skipBadLines bool) ([]string, [][]string, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, apperrors.NewStorageError("failed to open input", err).WithContext("path", path)
	}
	defer file.Close()

	var src io.Reader = file
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, 0, apperrors.NewParsingError("failed to open gzip stream", err).WithContext("path", path)
		}
		defer gz.Close()
		src = gz
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, 0, apperrors.NewParsingError("input has no header row", nil).WithContext("path", path)
	}
	if err != nil {
		return nil, nil, 0, apperrors.NewParsingError("failed to read header", err).WithContext("path", path)
	}
	header = normalizeHeader(header)

	var (
		records [][]string
		skipped int
	)
	for {
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, 0, err
			}
		}

		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, apperrors.NewParsingError("failed to read row", err).WithContext("path", path)
		}

		if len(rec) > len(header) {
			if !skipBadLines {
				line, _ := reader.FieldPos(0)
				return nil, nil, 0, apperrors.NewParsingError(
					fmt.Sprintf("expected %d fields, saw %d", len(header), len(rec)), nil).
					WithContext("path", path).
					WithContext("line", line).
					WithHint("enable pipeline.skip_bad_lines or run fix-movies")
			}
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return header, records, skipped, nil
}

func readWorkbook(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheets[0])
	}
	if len(rows) == 0 {
		return nil, nil, apperrors.NewParsingError("input has no header row", nil).WithContext("path", path)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	header := normalizeHeader(rows[0])
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		records = append(records, row)
	}
	return header, records, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
