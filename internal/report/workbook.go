package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetAggregates = "Aggregates"
	SheetGenres     = "Genres"
	SheetYears      = "Years"
	SheetLanguages  = "Languages"
	SheetRatings    = "Ratings"
)

// WorkbookInput is everything written to the summary workbook
type WorkbookInput struct {
	Aggregates []domain.MovieAggregate
	Analysis   *domain.Analysis
}

// WriteWorkbook writes one sheet per summary and a native column chart of
// the rating distribution
func WriteWorkbook(path string, in WorkbookInput) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAggregates); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}

	aggRows := make([][]string, len(in.Aggregates))
	for i := range in.Aggregates {
		aggRows[i] = exporter.AggregateRecord(&in.Aggregates[i])
	}
	if err := writeSheet(f, SheetAggregates, exporter.AggregateColumns, aggRows); err != nil {
		return err
	}

	if in.Analysis != nil {
		sheets := []struct {
			name  string
			key   string
			stats []domain.CategoryStats
		}{
			{SheetGenres, "genre", in.Analysis.Genres.Genres},
			{SheetYears, domain.ColYearReleased, in.Analysis.Years.Years},
			{SheetLanguages, domain.ColOriginalLanguage, in.Analysis.Languages},
		}
		for _, s := range sheets {
			if _, err := f.NewSheet(s.name); err != nil {
				return fmt.Errorf("create sheet %s: %w", s.name, err)
			}
			if err := writeSheet(f, s.name, append([]string{s.key}, exporter.CategoryColumns...), categoryRows(s.stats)); err != nil {
				return err
			}
		}
		if err := writeRatingsSheet(f, in.Analysis.RatingDistribution); err != nil {
			return err
		}
	}

	return exporter.WriteFile(path, func(w io.Writer) error {
		return f.Write(w)
	})
}

func categoryRows(stats []domain.CategoryStats) [][]string {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{
			s.Key,
			fmt.Sprint(s.MovieCount),
			exporter.FormatInt(s.TotalRatings),
			exporter.FormatFloat(s.AvgRating),
			exporter.FormatFloat(s.MedianMovieRating),
		}
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// writeRatingsSheet stores counts as numbers so the chart can plot them
func writeRatingsSheet(f *excelize.File, dist []domain.RatingBucket) error {
	if _, err := f.NewSheet(SheetRatings); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetRatings, err)
	}
	header := []interface{}{domain.ColRatingVal, domain.ColRatingCount, domain.ColShare}
	if err := f.SetSheetRow(SheetRatings, "A1", &header); err != nil {
		return err
	}
	for i, b := range dist {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{b.RatingVal, b.RatingCount, b.Share}
		if err := f.SetSheetRow(SheetRatings, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", SheetRatings, i+2, err)
		}
	}
	if len(dist) == 0 {
		return nil
	}

	last := len(dist) + 1
	return f.AddChart(SheetRatings, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetRatings),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetRatings, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetRatings, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Letterboxd Rating Distribution"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
