package operations

import (
	"context"
	"fmt"
	"log/slog"

	"filmstats/internal/aggregate"
	"filmstats/internal/analysis"
	"filmstats/internal/cleaning"
	"filmstats/internal/config"
	apperrors "filmstats/internal/errors"
	"filmstats/internal/exporter"
	"filmstats/internal/files"
	"filmstats/internal/ingest"
	"filmstats/internal/report"
	"filmstats/pkg/contracts/domain"
)

// StageOptions carries what every pipeline step needs
type StageOptions struct {
	Paths       *config.Paths
	Settings    *config.Config
	Tracer      *OperationTracer
	Broadcaster *StatusBroadcaster
}

// stageBase bundles the pieces shared by the concrete steps
type stageBase struct {
	BaseStage
	logger  *slog.Logger
	options *StageOptions
}

func newStageBase(base BaseStage, logger *slog.Logger, options *StageOptions) stageBase {
	if logger == nil {
		logger = slog.Default()
	}
	return stageBase{
		BaseStage: base,
		logger:    logger.With(slog.String("step", base.ID())),
		options:   options,
	}
}

// updateProgress updates the step state and the broadcaster snapshot
func (s *stageBase) updateProgress(state *OperationState, progress int, message string) {
	stepState := state.GetStage(s.ID())
	if stepState == nil {
		return
	}
	stepState.UpdateProgress(float64(progress), message)
	if s.options.Broadcaster != nil {
		s.options.Broadcaster.UpdateStepWithMetadata(state.ID, s.ID(), progress, message, stepState.MetadataCopy())
	}
}

func (s *stageBase) setMetadata(state *OperationState, key string, value interface{}) {
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata(key, value)
	}
}

func (s *stageBase) recordRows(ctx context.Context, table string, loaded, dropped int) {
	if s.options.Tracer != nil {
		s.options.Tracer.RecordRows(ctx, table, loaded, dropped)
	}
}

func (s *stageBase) loadOptions(kind string) ingest.LoadOptions {
	return ingest.LoadOptions{
		Kind:         kind,
		SkipBadLines: s.options.Settings.Pipeline.SkipBadLines,
		Logger:       s.logger,
	}
}

// rawPaths resolves the raw exports. A repaired movies file written by
// fix-movies takes precedence over the raw one.
func rawPaths(paths *config.Paths) ingest.RawPaths {
	raw := files.ResolveRawPaths(paths)
	if config.FileExists(paths.FixedMoviesCSV) {
		raw.Movies = paths.FixedMoviesCSV
	}
	return raw
}

func validateRawPaths(raw ingest.RawPaths, dataDir string) error {
	for _, in := range []struct{ kind, path string }{
		{"movies", raw.Movies},
		{"ratings", raw.Ratings},
		{"users", raw.Users},
	} {
		if !config.FileExists(in.path) {
			return apperrors.NewMissingFileError(in.kind+" export", in.path).
				WithHint(fmt.Sprintf("place %s.csv in %s", in.kind, dataDir))
		}
	}
	return nil
}

// LoadStage reads the three raw exports
type LoadStage struct {
	stageBase
}

// NewLoadStage creates the load step
func NewLoadStage(logger *slog.Logger, options *StageOptions) *LoadStage {
	p := options.Paths
	return &LoadStage{newStageBase(NewBaseStage(StepIDLoad, StepNameLoad, nil,
		[]DataRequirement{
			{Type: "movies_export", Location: p.MoviesCSV},
			{Type: "ratings_export", Location: p.RatingsCSV},
			{Type: "users_export", Location: p.UsersCSV},
		},
		nil,
	), logger, options)}
}

// Validate checks that every raw export exists in a supported format
func (l *LoadStage) Validate(state *OperationState) error {
	return validateRawPaths(rawPaths(l.options.Paths), l.options.Paths.DataDir)
}

// Execute loads the raw exports into the run context
func (l *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	l.updateProgress(state, 10, "Reading raw exports")

	raw, err := ingest.LoadRaw(ctx, rawPaths(l.options.Paths), l.loadOptions(""))
	if err != nil {
		return err
	}

	for name, t := range map[string]*ingest.Table{"movies": raw.Movies, "ratings": raw.Ratings, "users": raw.Users} {
		l.recordRows(ctx, name, t.Len(), t.SkippedLines)
		l.setMetadata(state, name+"_rows", t.Len())
		l.setMetadata(state, name+"_skipped_lines", t.SkippedLines)
	}
	state.SetContext(ContextKeyRawDataset, raw)

	l.updateProgress(state, 100, fmt.Sprintf("Loaded %d movies, %d ratings, %d users",
		raw.Movies.Len(), raw.Ratings.Len(), raw.Users.Len()))
	return nil
}

// CleanStage cleans the raw exports and merges ratings with movies
type CleanStage struct {
	stageBase
	reporter *report.Reporter
}

// NewCleanStage creates the clean step
func NewCleanStage(logger *slog.Logger, options *StageOptions) *CleanStage {
	p := options.Paths
	s := &CleanStage{stageBase: newStageBase(NewBaseStage(StepIDClean, StepNameClean,
		[]string{StepIDLoad},
		[]DataRequirement{{Type: ContextKeyRawDataset, Optional: true}},
		[]DataOutput{
			{Type: "movies_clean", Location: p.MoviesCleanCSV},
			{Type: "users_clean", Location: p.UsersCleanCSV},
			{Type: "ratings_clean", Location: p.RatingsCleanCSV},
			{Type: ContextKeyRatedMovies, Location: p.RatedMoviesCSV},
			{Type: "cleaning_report", Location: p.CleaningReport},
		},
	), logger, options)}
	s.reporter = report.NewReporter(logger, p, report.OptionsFromConfig(options.Settings))
	return s
}

// Validate accepts a raw dataset loaded in this run or raw exports on disk
func (c *CleanStage) Validate(state *OperationState) error {
	if _, ok := state.GetContext(ContextKeyRawDataset); ok {
		return nil
	}
	return validateRawPaths(rawPaths(c.options.Paths), c.options.Paths.DataDir)
}

// Execute cleans, merges and persists the cleaned tables
func (c *CleanStage) Execute(ctx context.Context, state *OperationState) error {
	raw, ok := contextValue[*ingest.RawDataset](state, ContextKeyRawDataset)
	if !ok {
		c.updateProgress(state, 5, "Reading raw exports")
		loaded, err := ingest.LoadRaw(ctx, rawPaths(c.options.Paths), c.loadOptions(""))
		if err != nil {
			return err
		}
		raw = loaded
	}

	c.updateProgress(state, 20, "Cleaning movies, ratings and users")
	result, err := cleaning.NewCleaner(c.logger).Run(ctx, raw)
	if err != nil {
		return err
	}

	c.recordRows(ctx, "movies_clean", len(result.Movies), raw.Movies.Len()-len(result.Movies))
	c.recordRows(ctx, "ratings_clean", len(result.Ratings), raw.Ratings.Len()-len(result.Ratings))
	c.recordRows(ctx, "users_clean", len(result.Users), raw.Users.Len()-len(result.Users))
	c.recordRows(ctx, "ratings_with_movies", result.MergeStats.MergedRows, result.MergeStats.DroppedUnmatched)

	c.updateProgress(state, 60, "Writing cleaned tables")
	p := c.options.Paths
	tables := exporter.NewTableExporter(c.logger)
	writes := []struct {
		path  string
		rows  int
		write func() error
	}{
		{p.MoviesCleanCSV, len(result.Movies), func() error {
			return tables.WriteMovies(p.MoviesCleanCSV, result.MovieColumns, result.Movies)
		}},
		{p.UsersCleanCSV, len(result.Users), func() error {
			return tables.WriteUsers(p.UsersCleanCSV, result.UserColumns, result.Users)
		}},
		{p.RatingsCleanCSV, len(result.Ratings), func() error {
			return tables.WriteRatings(p.RatingsCleanCSV, result.RatingColumns, result.Ratings)
		}},
		{p.RatedMoviesCSV, len(result.Merged), func() error {
			return tables.WriteRatedMovies(p.RatedMoviesCSV, result.MergedColumns, result.Merged)
		}},
	}
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.write(); err != nil {
			return err
		}
		state.RecordOutput(c.ID(), w.path, w.rows)
	}

	path, err := c.reporter.WriteCleaning(ctx, result)
	if err != nil {
		return err
	}
	state.RecordOutput(c.ID(), path, -1)

	state.SetContext(ContextKeyCleaned, result)
	state.SetContext(ContextKeyRatedMovies, result.Merged)

	c.setMetadata(state, "movies", len(result.Movies))
	c.setMetadata(state, "ratings", len(result.Ratings))
	c.setMetadata(state, "users", len(result.Users))
	c.setMetadata(state, "merged_rows", result.MergeStats.MergedRows)
	c.setMetadata(state, "dropped_unmatched", result.MergeStats.DroppedUnmatched)

	c.updateProgress(state, 100, fmt.Sprintf("Merged %d ratings with movie metadata", result.MergeStats.MergedRows))
	return nil
}

// ratedMovies returns the merged rows from this run or reads them from disk
func ratedMovies(ctx context.Context, s *stageBase, state *OperationState) ([]domain.RatedMovie, error) {
	if rows, ok := contextValue[[]domain.RatedMovie](state, ContextKeyRatedMovies); ok {
		return rows, nil
	}
	rows, _, err := ingest.LoadRatedMovies(ctx, s.options.Paths.RatedMoviesCSV, s.loadOptions("merged ratings"))
	return rows, err
}

// movieAggregates returns the aggregates from this run or reads them from disk
func movieAggregates(ctx context.Context, s *stageBase, state *OperationState) ([]domain.MovieAggregate, error) {
	if aggs, ok := contextValue[[]domain.MovieAggregate](state, ContextKeyAggregates); ok {
		return aggs, nil
	}
	return ingest.LoadAggregates(ctx, s.options.Paths.MovieAggregatesCSV, s.loadOptions("movie aggregates"))
}

// AggregateStage computes per-movie aggregates
type AggregateStage struct {
	stageBase
}

// NewAggregateStage creates the aggregate step
func NewAggregateStage(logger *slog.Logger, options *StageOptions) *AggregateStage {
	p := options.Paths
	return &AggregateStage{newStageBase(NewBaseStage(StepIDAggregate, StepNameAggregate,
		[]string{StepIDClean},
		[]DataRequirement{{Type: ContextKeyRatedMovies, Location: p.RatedMoviesCSV, Producer: StepIDClean}},
		[]DataOutput{{Type: ContextKeyAggregates, Location: p.MovieAggregatesCSV}},
	), logger, options)}
}

// Execute aggregates the merged ratings and writes movie_aggregates.csv
func (a *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	a.updateProgress(state, 10, "Reading merged ratings")
	rows, err := ratedMovies(ctx, &a.stageBase, state)
	if err != nil {
		return err
	}

	a.updateProgress(state, 30, fmt.Sprintf("Aggregating %d ratings", len(rows)))
	aggs, summary, err := aggregate.NewAggregator(a.logger,
		aggregate.ConfigFromPipeline(a.options.Settings.Pipeline)).Run(ctx, rows)
	if err != nil {
		return err
	}

	path := a.options.Paths.MovieAggregatesCSV
	if err := exporter.NewTableExporter(a.logger).WriteAggregates(path, aggs); err != nil {
		return err
	}
	state.RecordOutput(a.ID(), path, len(aggs))
	a.recordRows(ctx, "movie_aggregates", len(aggs), 0)

	state.SetContext(ContextKeyAggregates, aggs)
	state.SetContext(ContextKeySummary, summary)
	a.setMetadata(state, "movies", summary.MoviesWithRatings)
	a.setMetadata(state, "top_rated", len(summary.TopRated))

	a.updateProgress(state, 100, fmt.Sprintf("Aggregated %d movies", len(aggs)))
	return nil
}

// AnalyzeStage derives the genre, year, language and rating summaries
type AnalyzeStage struct {
	stageBase
}

// NewAnalyzeStage creates the analyze step
func NewAnalyzeStage(logger *slog.Logger, options *StageOptions) *AnalyzeStage {
	p := options.Paths
	return &AnalyzeStage{newStageBase(NewBaseStage(StepIDAnalyze, StepNameAnalyze,
		[]string{StepIDAggregate},
		[]DataRequirement{
			{Type: ContextKeyAggregates, Location: p.MovieAggregatesCSV, Producer: StepIDAggregate},
			{Type: ContextKeyRatedMovies, Location: p.RatedMoviesCSV, Producer: StepIDClean},
		},
		[]DataOutput{
			{Type: "genre_stats", Location: p.GenreStatsCSV},
			{Type: "year_stats", Location: p.YearStatsCSV},
			{Type: "language_stats", Location: p.LanguageStatsCSV},
			{Type: "rating_distribution", Location: p.RatingDistributionCSV},
		},
	), logger, options)}
}

// Execute runs the analyzer and writes the summary tables
func (a *AnalyzeStage) Execute(ctx context.Context, state *OperationState) error {
	a.updateProgress(state, 10, "Reading aggregates")
	aggs, err := movieAggregates(ctx, &a.stageBase, state)
	if err != nil {
		return err
	}
	rows, err := ratedMovies(ctx, &a.stageBase, state)
	if err != nil {
		return err
	}

	a.updateProgress(state, 40, "Summarising genres, years and languages")
	result, err := analysis.NewAnalyzer(a.logger).Run(ctx, aggs, rows)
	if err != nil {
		return err
	}

	p := a.options.Paths
	tables := exporter.NewTableExporter(a.logger)
	categories := []struct {
		path, key string
		stats     []domain.CategoryStats
	}{
		{p.GenreStatsCSV, domain.CategoryGenre, result.Genres.Genres},
		{p.YearStatsCSV, domain.ColYearReleased, result.Years.Years},
		{p.LanguageStatsCSV, domain.ColOriginalLanguage, result.Languages},
	}
	for _, c := range categories {
		if err := tables.WriteCategoryStats(c.path, c.key, c.stats); err != nil {
			return err
		}
		state.RecordOutput(a.ID(), c.path, len(c.stats))
	}
	if err := tables.WriteRatingDistribution(p.RatingDistributionCSV, result.RatingDistribution); err != nil {
		return err
	}
	state.RecordOutput(a.ID(), p.RatingDistributionCSV, len(result.RatingDistribution))

	state.SetContext(ContextKeyAggregates, aggs)
	state.SetContext(ContextKeyAnalysis, result)
	a.setMetadata(state, "genres", len(result.Genres.Genres))
	a.setMetadata(state, "years", len(result.Years.Years))
	a.setMetadata(state, "languages", len(result.Languages))
	a.setMetadata(state, "movies_with_genre", result.Genres.MoviesWithGenre)
	a.setMetadata(state, "movies_undated", result.Years.MoviesUndated)

	a.updateProgress(state, 100, fmt.Sprintf("Summarised %d genres", len(result.Genres.Genres)))
	return nil
}

// ReportStage renders the markdown reports, charts, workbook and BSON dump
type ReportStage struct {
	stageBase
	reporter *report.Reporter
}

// NewReportStage creates the report step
func NewReportStage(logger *slog.Logger, options *StageOptions) *ReportStage {
	p := options.Paths
	outputs := []DataOutput{
		{Type: "aggregates_summary", Location: p.AggregatesSummary},
		{Type: "genre_report", Location: p.GenreReport},
		{Type: "year_language_report", Location: p.YearLanguageReport},
	}
	if options.Settings.Outputs.Charts {
		outputs = append(outputs,
			DataOutput{Type: "rating_chart", Location: p.RatingChart},
			DataOutput{Type: "top_genres_chart", Location: p.TopGenresChart})
	}
	if options.Settings.Outputs.Workbook {
		outputs = append(outputs, DataOutput{Type: "workbook", Location: p.Workbook})
	}
	if options.Settings.Outputs.BSON {
		outputs = append(outputs, DataOutput{Type: "aggregates_bson", Location: p.AggregatesBSON})
	}

	s := &ReportStage{stageBase: newStageBase(NewBaseStage(StepIDReport, StepNameReport,
		[]string{StepIDAnalyze},
		[]DataRequirement{
			{Type: ContextKeyAggregates, Location: p.MovieAggregatesCSV, Producer: StepIDAggregate},
			{Type: ContextKeyAnalysis, Location: p.GenreStatsCSV, Producer: StepIDAnalyze},
			{Type: ContextKeyAnalysis, Location: p.YearStatsCSV, Producer: StepIDAnalyze},
			{Type: ContextKeyAnalysis, Location: p.LanguageStatsCSV, Producer: StepIDAnalyze},
			{Type: ContextKeyAnalysis, Location: p.RatingDistributionCSV, Producer: StepIDAnalyze},
		},
		outputs,
	), logger, options)}
	s.reporter = report.NewReporter(logger, p, report.OptionsFromConfig(options.Settings))
	return s
}

// Execute renders every report from this run's results or from disk
func (r *ReportStage) Execute(ctx context.Context, state *OperationState) error {
	r.updateProgress(state, 10, "Reading results")
	aggs, err := movieAggregates(ctx, &r.stageBase, state)
	if err != nil {
		return err
	}

	summary, ok := contextValue[domain.AggregateSummary](state, ContextKeySummary)
	if !ok {
		settings := r.options.Settings.Pipeline
		summary = aggregate.Summarize(aggs, settings.TopRatedMinRatings, settings.TopRatedLimit)
	}

	result, ok := contextValue[*domain.Analysis](state, ContextKeyAnalysis)
	if !ok {
		result, err = LoadAnalysis(ctx, r.options.Paths, aggs, r.loadOptions(""))
		if err != nil {
			return err
		}
	}

	r.updateProgress(state, 40, "Rendering reports")
	written, err := r.reporter.Run(ctx, report.Input{Aggregates: aggs, Summary: summary, Analysis: result})
	for _, path := range written {
		state.RecordOutput(r.ID(), path, -1)
	}
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyAggregates, aggs)
	state.SetContext(ContextKeySummary, summary)
	state.SetContext(ContextKeyAnalysis, result)
	state.SetContext(ContextKeyReports, written)
	r.setMetadata(state, "reports", len(written))

	r.updateProgress(state, 100, fmt.Sprintf("Wrote %d reports", len(written)))
	return nil
}

// LoadAnalysis reads the analyzer tables written by an earlier analyze run.
// The coverage counts are recomputed from the aggregates.
func LoadAnalysis(ctx context.Context, p *config.Paths, aggs []domain.MovieAggregate, opts ingest.LoadOptions) (*domain.Analysis, error) {

	genres, err := ingest.LoadCategoryStats(ctx, p.GenreStatsCSV, domain.CategoryGenre, opts)
	if err != nil {
		return nil, err
	}
	years, err := ingest.LoadCategoryStats(ctx, p.YearStatsCSV, domain.ColYearReleased, opts)
	if err != nil {
		return nil, err
	}
	languages, err := ingest.LoadCategoryStats(ctx, p.LanguageStatsCSV, domain.ColOriginalLanguage, opts)
	if err != nil {
		return nil, err
	}
	dist, err := ingest.LoadRatingDistribution(ctx, p.RatingDistributionCSV, opts)
	if err != nil {
		return nil, err
	}

	withGenre, undated := coverage(aggs)
	return &domain.Analysis{
		Genres:             domain.GenreAnalysis{Genres: genres, MoviesWithGenre: withGenre},
		Years:              domain.YearAnalysis{Years: years, MoviesUndated: undated},
		Languages:          languages,
		RatingDistribution: dist,
	}, nil
}

// coverage counts movies with at least one genre and movies without a year
func coverage(aggs []domain.MovieAggregate) (withGenre, undated int) {
	for i := range aggs {
		if len(aggs[i].Genres) > 0 {
			withGenre++
		}
		if aggs[i].YearReleased == nil {
			undated++
		}
	}
	return withGenre, undated
}

// StageFactory creates the pipeline steps in dependency order
func StageFactory(logger *slog.Logger, options *StageOptions) []Step {
	return []Step{
		NewLoadStage(logger, options),
		NewCleanStage(logger, options),
		NewAggregateStage(logger, options),
		NewAnalyzeStage(logger, options),
		NewReportStage(logger, options),
	}
}

// RegisterStages registers every pipeline step with the registry
func RegisterStages(registry *Registry, logger *slog.Logger, options *StageOptions) error {
	for _, step := range StageFactory(logger, options) {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ Step = (*LoadStage)(nil)
	_ Step = (*CleanStage)(nil)
	_ Step = (*AggregateStage)(nil)
	_ Step = (*AnalyzeStage)(nil)
	_ Step = (*ReportStage)(nil)
)
