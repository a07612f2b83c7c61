package config

import "time"

// Application constants
const (
	AppName = "filmstats"

	EnvPrefix      = "FILMSTATS"
	ConfigFileName = "filmstats.yaml"
	DotEnvFileName = ".env"

	DefaultDataDir      = "data"
	DefaultProcessedDir = "data/processed"
	DefaultReportsDir   = "reports"
	DefaultLogsDir      = "logs"

	DefaultWatchDebounce = 2 * time.Second
)

// Raw input files under the data directory
const (
	MoviesFile  = "movies.csv"
	RatingsFile = "ratings.csv"
	UsersFile   = "users.csv"

	// FixedMoviesFile is written next to the raw inputs by fix-movies.
	FixedMoviesFile = "movies_clean.csv"
)

// Processed outputs under the processed directory
const (
	MoviesCleanFile        = "movies_clean.csv"
	UsersCleanFile         = "users_clean.csv"
	RatingsCleanFile       = "ratings_clean.csv.gz"
	RatedMoviesFile        = "ratings_with_movies.csv.gz"
	MovieAggregatesFile    = "movie_aggregates.csv"
	GenreStatsFile         = "genre_stats.csv"
	RatingDistributionFile = "rating_distribution.csv"
	YearStatsFile          = "year_stats.csv"
	LanguageStatsFile      = "language_stats.csv"
	ManifestFile           = "run_manifest.json"
)

// Report files under the reports directory
const (
	CleaningReportFile     = "data_cleaning_report.md"
	AggregatesSummaryFile  = "movie_aggregates_summary.md"
	GenreReportFile        = "genre_analysis_report.md"
	YearLanguageReportFile = "year_language_report.md"
	RatingChartFile        = "rating_distribution.png"
	TopGenresChartFile     = "top_genres_average_rating.png"
	WorkbookFile           = "filmstats.xlsx"
	AggregatesBSONFile     = "movie_aggregates.bson"
)
