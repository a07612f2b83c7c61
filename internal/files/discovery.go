package files

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"filmstats/internal/config"
	"filmstats/internal/ingest"
)

// ReportPatterns match the artifacts the reporter writes
var ReportPatterns = []string{"*.md", "*.png", "*.xlsx", "*.bson"}

// InputPatterns match the raw inputs and their compressed or workbook forms
var InputPatterns = []string{"{movies,ratings,users}.{csv,csv.gz,xlsx}"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods resolve against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindFilesByPattern returns the files under dir matching any doublestar
// pattern, sorted by name. Names are slash-separated and relative to dir. A
// missing directory yields no files.
func (d *Discovery) FindFilesByPattern(dir string, patterns ...string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return []FileInfo{}, nil
	}

	fsys := os.DirFS(fullPath)
	seen := make(map[string]bool)
	files := []FileInfo{}
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, name := range matches {
			if seen[name] {
				continue
			}
			seen[name] = true
			info, err := fs.Stat(fsys, name)
			if err != nil {
				continue
			}
			files = append(files, FileInfo{
				Path:    filepath.Join(fullPath, filepath.FromSlash(name)),
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindReports lists the report artifacts in dir
func (d *Discovery) FindReports(dir string) ([]FileInfo, error) {
	return d.FindFilesByPattern(dir, ReportPatterns...)
}

// ResolveReport maps a report name to its path. Names that escape dir, do
// not match a report pattern or do not exist are rejected.
func (d *Discovery) ResolveReport(dir, name string) (string, bool) {
	if !fs.ValidPath(name) || !matchAny(ReportPatterns, name) {
		return "", false
	}
	path := filepath.Join(d.resolve(dir), filepath.FromSlash(name))
	if !config.FileExists(path) {
		return "", false
	}
	return path, true
}

// IsInput reports whether a file name is one of the raw inputs
func IsInput(name string) bool {
	return matchAny(InputPatterns, filepath.Base(name))
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}

// ResolveRawPaths returns the raw input locations. The configured csv wins;
// otherwise a gzip or xlsx variant in the data directory is used. An
// unresolved input keeps the configured path so loading reports it.
func ResolveRawPaths(paths *config.Paths) ingest.RawPaths {
	return ingest.RawPaths{
		Movies:  resolveInput(paths.DataDir, paths.MoviesCSV, "movies"),
		Ratings: resolveInput(paths.DataDir, paths.RatingsCSV, "ratings"),
		Users:   resolveInput(paths.DataDir, paths.UsersCSV, "users"),
	}
}

func resolveInput(dir, configured, stem string) string {
	if config.FileExists(configured) {
		return configured
	}
	for _, ext := range []string{".csv.gz", ".xlsx"} {
		candidate := filepath.Join(dir, stem+ext)
		if config.FileExists(candidate) {
			return candidate
		}
	}
	return configured
}
