package report

import (
	"context"
	"log/slog"

	"filmstats/internal/cleaning"
	"filmstats/internal/config"
	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

// Options selects the optional artifacts and report thresholds
type Options struct {
	Genre          GenreOptions
	ChartThreshold int64
	ChartTopN      int
	Charts         bool
	Workbook       bool
	BSON           bool
}

// OptionsFromConfig maps pipeline and output settings to report options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Genre: GenreOptions{
			Threshold:      cfg.Pipeline.GenreReportThreshold,
			TopN:           cfg.Pipeline.TopGenres,
			HistogramWidth: cfg.Pipeline.HistogramWidth,
		},
		ChartThreshold: cfg.Pipeline.GenreChartThreshold,
		ChartTopN:      cfg.Pipeline.TopGenres,
		Charts:         cfg.Outputs.Charts,
		Workbook:       cfg.Outputs.Workbook,
		BSON:           cfg.Outputs.BSON,
	}
}

// Input carries the results rendered by Run
type Input struct {
	Aggregates []domain.MovieAggregate
	Summary    domain.AggregateSummary
	Analysis   *domain.Analysis
}

// Reporter writes markdown reports, charts, the workbook and the BSON dump
type Reporter struct {
	logger *slog.Logger
	paths  *config.Paths
	opts   Options
}

// NewReporter creates a reporter writing under paths
func NewReporter(logger *slog.Logger, paths *config.Paths, opts Options) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Genre.TopN <= 0 {
		opts.Genre.TopN = DefaultGenreOptions().TopN
	}
	if opts.Genre.HistogramWidth <= 0 {
		opts.Genre.HistogramWidth = DefaultGenreOptions().HistogramWidth
	}
	if opts.ChartTopN <= 0 {
		opts.ChartTopN = DefaultGenreOptions().TopN
	}
	return &Reporter{
		logger: logger.With(slog.String("component", "reporter")),
		paths:  paths,
		opts:   opts,
	}
}

// WriteCleaning writes data_cleaning_report.md for a cleaning run
func (r *Reporter) WriteCleaning(ctx context.Context, result *cleaning.Result) (string, error) {
	path := r.paths.CleaningReport
	if err := exporter.WriteText(path, CleaningMarkdown(result.Reports, result.MergeStats)); err != nil {
		return "", err
	}
	r.logger.InfoContext(ctx, "report written", slog.String("path", path))
	return path, nil
}

// Run writes every report for in and returns the paths written, in order.
// Charts with nothing to plot are skipped.
func (r *Reporter) Run(ctx context.Context, in Input) ([]string, error) {
	var written []string
	text := func(path, content string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := exporter.WriteText(path, content); err != nil {
			return err
		}
		written = append(written, path)
		r.logger.InfoContext(ctx, "report written", slog.String("path", path))
		return nil
	}

	if err := text(r.paths.AggregatesSummary, AggregatesMarkdown(in.Summary)); err != nil {
		return written, err
	}

	if in.Analysis != nil {
		a := in.Analysis
		if err := text(r.paths.GenreReport, GenreMarkdown(a.Genres, a.RatingDistribution, r.opts.Genre)); err != nil {
			return written, err
		}
		if err := text(r.paths.YearLanguageReport, YearLanguageMarkdown(a.Years, a.Languages)); err != nil {
			return written, err
		}
		if r.opts.Charts {
			paths, err := r.writeCharts(ctx, a)
			written = append(written, paths...)
			if err != nil {
				return written, err
			}
		}
	}

	if r.opts.Workbook {
		if err := WriteWorkbook(r.paths.Workbook, WorkbookInput{Aggregates: in.Aggregates, Analysis: in.Analysis}); err != nil {
			return written, err
		}
		written = append(written, r.paths.Workbook)
		r.logger.InfoContext(ctx, "workbook written", slog.String("path", r.paths.Workbook))
	}

	if r.opts.BSON {
		if err := WriteBSONDump(r.paths.AggregatesBSON, in.Aggregates); err != nil {
			return written, err
		}
		written = append(written, r.paths.AggregatesBSON)
		r.logger.InfoContext(ctx, "bson dump written",
			slog.String("path", r.paths.AggregatesBSON),
			slog.Int("documents", len(in.Aggregates)))
	}

	return written, nil
}

func (r *Reporter) writeCharts(ctx context.Context, a *domain.Analysis) ([]string, error) {
	var written []string

	ok, err := RatingDistributionChart(r.paths.RatingChart, a.RatingDistribution)
	if err != nil {
		return written, err
	}
	if ok {
		written = append(written, r.paths.RatingChart)
	} else {
		r.logger.InfoContext(ctx, "chart skipped, no ratings", slog.String("path", r.paths.RatingChart))
	}

	ok, err = TopGenresChart(r.paths.TopGenresChart, a.Genres.Genres, r.opts.ChartThreshold, r.opts.ChartTopN)
	if err != nil {
		return written, err
	}
	if ok {
		written = append(written, r.paths.TopGenresChart)
	} else {
		r.logger.InfoContext(ctx, "chart skipped, no genre reached the threshold",
			slog.String("path", r.paths.TopGenresChart),
			slog.Int64("threshold", r.opts.ChartThreshold))
	}
	return written, nil
}
