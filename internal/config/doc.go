// Package config loads filmstats configuration and resolves file paths.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables, including a .env file in the base directory
//  2. filmstats.yaml in the base directory (or the file named by FILMSTATS_CONFIG)
//  3. Default values
//
// Environment variables use the FILMSTATS prefix and the section name:
//
//	FILMSTATS_PATHS_DATA_DIR=/srv/letterboxd/data
//	FILMSTATS_PIPELINE_TOP_RATED_MIN_RATINGS=50
//	FILMSTATS_OUTPUTS_CHARTS=false
//	FILMSTATS_LOGGING_LEVEL=debug
//	FILMSTATS_SERVER_PORT=9090
//
// # Path Management
//
// Paths is the single source of truth for every input and output file:
//
//	paths := cfg.ResolvePaths()
//	paths.RatedMoviesCSV // data/processed/ratings_with_movies.csv.gz
package config
