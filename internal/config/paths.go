package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for every file the pipeline reads or
// writes.
type Paths struct {
	BaseDir      string
	DataDir      string
	ProcessedDir string
	ReportsDir   string
	LogsDir      string

	// Raw inputs
	MoviesCSV      string
	RatingsCSV     string
	UsersCSV       string
	FixedMoviesCSV string

	// Processed outputs
	MoviesCleanCSV        string
	UsersCleanCSV         string
	RatingsCleanCSV       string
	RatedMoviesCSV        string
	MovieAggregatesCSV    string
	GenreStatsCSV         string
	RatingDistributionCSV string
	YearStatsCSV          string
	LanguageStatsCSV      string
	ManifestJSON          string

	// Reports
	CleaningReport     string
	AggregatesSummary  string
	GenreReport        string
	YearLanguageReport string
	RatingChart        string
	TopGenresChart     string
	Workbook           string
	AggregatesBSON     string
}

// NewPaths resolves the configured directories against BaseDir
func NewPaths(pc PathsConfig) *Paths {
	base := pc.BaseDir
	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	dataDir := resolve(pc.DataDir)
	processedDir := resolve(pc.ProcessedDir)
	reportsDir := resolve(pc.ReportsDir)

	return &Paths{
		BaseDir:      base,
		DataDir:      dataDir,
		ProcessedDir: processedDir,
		ReportsDir:   reportsDir,
		LogsDir:      resolve(pc.LogsDir),

		MoviesCSV:      filepath.Join(dataDir, MoviesFile),
		RatingsCSV:     filepath.Join(dataDir, RatingsFile),
		UsersCSV:       filepath.Join(dataDir, UsersFile),
		FixedMoviesCSV: filepath.Join(dataDir, FixedMoviesFile),

		MoviesCleanCSV:        filepath.Join(processedDir, MoviesCleanFile),
		UsersCleanCSV:         filepath.Join(processedDir, UsersCleanFile),
		RatingsCleanCSV:       filepath.Join(processedDir, RatingsCleanFile),
		RatedMoviesCSV:        filepath.Join(processedDir, RatedMoviesFile),
		MovieAggregatesCSV:    filepath.Join(processedDir, MovieAggregatesFile),
		GenreStatsCSV:         filepath.Join(processedDir, GenreStatsFile),
		RatingDistributionCSV: filepath.Join(processedDir, RatingDistributionFile),
		YearStatsCSV:          filepath.Join(processedDir, YearStatsFile),
		LanguageStatsCSV:      filepath.Join(processedDir, LanguageStatsFile),
		ManifestJSON:          filepath.Join(processedDir, ManifestFile),

		CleaningReport:     filepath.Join(reportsDir, CleaningReportFile),
		AggregatesSummary:  filepath.Join(reportsDir, AggregatesSummaryFile),
		GenreReport:        filepath.Join(reportsDir, GenreReportFile),
		YearLanguageReport: filepath.Join(reportsDir, YearLanguageReportFile),
		RatingChart:        filepath.Join(reportsDir, RatingChartFile),
		TopGenresChart:     filepath.Join(reportsDir, TopGenresChartFile),
		Workbook:           filepath.Join(reportsDir, WorkbookFile),
		AggregatesBSON:     filepath.Join(reportsDir, AggregatesBSONFile),
	}
}

// EnsureDirectories creates the output directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ProcessedDir, p.ReportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RelativeToBase returns path relative to BaseDir when possible
func (p *Paths) RelativeToBase(path string) string {
	rel, err := filepath.Rel(p.BaseDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs all resolved directories for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("processed_dir", p.ProcessedDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir),
	)
}
