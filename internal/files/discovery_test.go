package files

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/config"
	"filmstats/internal/shared/testutil"
)

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.Equal(t, "/test/base", discovery.basePath)
}

func TestFindFilesByPattern(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		patterns []string
		expected []string
	}{
		{
			name:     "reports only",
			files:    []string{"genre.md", "chart.png", "book.xlsx", "dump.bson", "notes.txt"},
			patterns: ReportPatterns,
			expected: []string{"book.xlsx", "chart.png", "dump.bson", "genre.md"},
		},
		{
			name:     "brace pattern",
			files:    []string{"movies.csv", "ratings.csv.gz", "users.xlsx", "other.csv"},
			patterns: InputPatterns,
			expected: []string{"movies.csv", "ratings.csv.gz", "users.xlsx"},
		},
		{
			name:     "recursive pattern",
			files:    []string{"a.md", "nested/b.md", "nested/deep/c.md"},
			patterns: []string{"**/*.md"},
			expected: []string{"a.md", "nested/b.md", "nested/deep/c.md"},
		},
		{
			name:     "overlapping patterns deduplicated",
			files:    []string{"a.md"},
			patterns: []string{"*.md", "a.*"},
			expected: []string{"a.md"},
		},
		{
			name:     "empty directory",
			patterns: ReportPatterns,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				testutil.WriteFile(t, filepath.Join(dir, filepath.Dir(f)), filepath.Base(f), "x")
			}

			found, err := NewDiscovery(dir).FindFilesByPattern(".", tt.patterns...)
			require.NoError(t, err)

			names := make([]string, len(found))
			for i, f := range found {
				names[i] = f.Name
				assert.Equal(t, int64(1), f.Size)
				assert.FileExists(t, f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindFilesMissingDirectory(t *testing.T) {
	found, err := NewDiscovery(t.TempDir()).FindReports("absent")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestResolveReport(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "genre_analysis_report.md", "# Genre")
	testutil.WriteFile(t, dir, "secret.txt", "x")
	d := NewDiscovery(dir)

	tests := []struct {
		name   string
		report string
		ok     bool
	}{
		{"existing report", "genre_analysis_report.md", true},
		{"missing report", "other.md", false},
		{"not a report type", "secret.txt", false},
		{"path traversal", "../genre_analysis_report.md", false},
		{"absolute path", "/etc/passwd.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := d.ResolveReport(".", tt.report)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, filepath.Join(dir, tt.report), path)
			}
		})
	}
}

func TestIsInput(t *testing.T) {
	assert.True(t, IsInput("/data/movies.csv"))
	assert.True(t, IsInput("ratings.csv.gz"))
	assert.True(t, IsInput("users.xlsx"))
	assert.False(t, IsInput("movies_clean.csv"))
	assert.False(t, IsInput(".movies.csv.123"))
}

func TestResolveRawPaths(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(config.PathsConfig{
		BaseDir:      base,
		DataDir:      "data",
		ProcessedDir: "data/processed",
		ReportsDir:   "reports",
		LogsDir:      "logs",
	})
	testutil.WriteFile(t, paths.DataDir, "movies.csv", "movie_id\n")
	testutil.WriteFile(t, paths.DataDir, "ratings.csv.gz", "")
	testutil.WriteFile(t, paths.DataDir, "ratings.xlsx", "")

	raw := ResolveRawPaths(paths)
	assert.Equal(t, paths.MoviesCSV, raw.Movies)
	assert.Equal(t, filepath.Join(paths.DataDir, "ratings.csv.gz"), raw.Ratings)
	assert.Equal(t, paths.UsersCSV, raw.Users, "unresolved input keeps the configured path")
}
