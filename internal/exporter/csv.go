package exporter

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "filmstats/internal/errors"
)

// CSVWriter provides CSV export functionality. Paths ending in .gz are
// gzip-compressed.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("writing csv file",
		slog.String("path", filePath),
		slog.Int("record_count", len(options.Records)))

	stream, err := w.createStream(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.abort()
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d to %s", i, filePath), err)
		}
	}

	if err := stream.Close(); err != nil {
		return apperrors.NewStorageError("failed to finish "+filePath, err)
	}
	return nil
}

// WriteSimpleCSV writes a simple CSV file with headers and records
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: headers,
		Records: records,
	})
}

// StreamWriter provides streaming CSV writing for large datasets. Output
// goes to a temporary file that replaces the target on Close.
type StreamWriter struct {
	path   string
	tmp    *os.File
	gz     *gzip.Writer
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.createStream(filePath, headers, false)
}

func (w *CSVWriter) createStream(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create "+filePath, err)
	}

	s := &StreamWriter{path: filePath, tmp: tmp}
	var out io.Writer = tmp
	if strings.HasSuffix(filePath, ".gz") {
		s.gz = gzip.NewWriter(tmp)
		out = s.gz
	}

	if bom {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			s.abort()
			return nil, apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	s.writer = csv.NewWriter(out)
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.abort()
			return nil, apperrors.NewStorageError("failed to write headers", err)
		}
	}
	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	s.rows++
	return s.writer.Write(record)
}

// Rows returns the number of records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes the stream and moves it into place
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.abort()
		return err
	}
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			s.abort()
			return err
		}
	}
	if err := s.tmp.Close(); err != nil {
		os.Remove(s.tmp.Name())
		return err
	}
	return os.Rename(s.tmp.Name(), s.path)
}

func (s *StreamWriter) abort() {
	s.tmp.Close()
	os.Remove(s.tmp.Name())
}
