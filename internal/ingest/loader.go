package ingest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"filmstats/internal/exporter"
)

// RawPaths locates the three raw exports
type RawPaths struct {
	Movies  string
	Ratings string
	Users   string
}

// RawDataset holds the raw exports as read from disk
type RawDataset struct {
	Movies  *Table
	Ratings *Table
	Users   *Table
}

// LoadRaw reads the movies, ratings and users exports concurrently. All three
// are required; the first failure cancels the other reads.
func LoadRaw(ctx context.Context, paths RawPaths, opts LoadOptions) (*RawDataset, error) {
	ds := &RawDataset{}
	g, gctx := errgroup.WithContext(ctx)

	load := func(kind, path string, dst **Table) {
		o := opts
		o.Kind = kind
		g.Go(func() error {
			t, err := LoadTable(gctx, path, o)
			if err != nil {
				return err
			}
			*dst = t
			return nil
		})
	}
	load("movies", paths.Movies, &ds.Movies)
	load("ratings", paths.Ratings, &ds.Ratings)
	load("users", paths.Users, &ds.Users)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

// FixResult summarises a fix-movies run
type FixResult struct {
	Rows           int `json:"rows"`
	SkippedLines   int `json:"skipped_lines"`
	DuplicatesDrop int `json:"duplicates_dropped"`
}

// FixMovies is the standalone pre-clean of the movies export: malformed lines
// are skipped, exact duplicate rows removed, and the result written to dst.
func FixMovies(ctx context.Context, src, dst string, logger *slog.Logger) (*FixResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := LoadTable(ctx, src, LoadOptions{Kind: "movies", SkipBadLines: true, Logger: logger})
	if err != nil {
		return nil, err
	}
	deduped, dropped := table.DropDuplicateRows()

	writer := exporter.NewCSVWriter(logger)
	if err := writer.WriteSimpleCSV(dst, deduped.Columns(), deduped.Records()); err != nil {
		return nil, err
	}

	result := &FixResult{Rows: deduped.Len(), SkippedLines: table.SkippedLines, DuplicatesDrop: dropped}
	logger.InfoContext(ctx, "movies file fixed",
		slog.String("source", src),
		slog.String("output", dst),
		slog.Int("rows", result.Rows),
		slog.Int("skipped_lines", result.SkippedLines),
		slog.Int("duplicates_dropped", result.DuplicatesDrop))
	return result, nil
}
