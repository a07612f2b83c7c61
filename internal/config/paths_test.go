package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(PathsConfig{
		BaseDir:      base,
		DataDir:      "data",
		ProcessedDir: "data/processed",
		ReportsDir:   "reports",
		LogsDir:      "logs",
	})

	assert.Equal(t, filepath.Join(base, "data", "movies.csv"), paths.MoviesCSV)
	assert.Equal(t, filepath.Join(base, "data", "movies_clean.csv"), paths.FixedMoviesCSV)
	assert.Equal(t, filepath.Join(base, "data", "processed", "ratings_with_movies.csv.gz"), paths.RatedMoviesCSV)
	assert.Equal(t, filepath.Join(base, "data", "processed", "movie_aggregates.csv"), paths.MovieAggregatesCSV)
	assert.Equal(t, filepath.Join(base, "reports", "genre_analysis_report.md"), paths.GenreReport)
	assert.Equal(t, filepath.Join(base, "reports", "top_genres_average_rating.png"), paths.TopGenresChart)
	assert.Equal(t, "reports/filmstats.xlsx", paths.RelativeToBase(paths.Workbook))
}

func TestNewPathsAbsoluteDirs(t *testing.T) {
	base := t.TempDir()
	external := t.TempDir()
	paths := NewPaths(PathsConfig{
		BaseDir:      base,
		DataDir:      external,
		ProcessedDir: "out",
		ReportsDir:   "reports",
		LogsDir:      "logs",
	})

	assert.Equal(t, filepath.Join(external, "ratings.csv"), paths.RatingsCSV)
	assert.Equal(t, filepath.Join(base, "out", "run_manifest.json"), paths.ManifestJSON)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths := cfg.ResolvePaths()

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.ProcessedDir, paths.ReportsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "movies.csv")
	require.NoError(t, os.WriteFile(file, []byte("movie_id\n"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
}
