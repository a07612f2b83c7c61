package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"filmstats/internal/analysis"
	"filmstats/internal/cleaning"
	"filmstats/internal/dataprocessing"
	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

// GenreOptions controls the genre report lists
type GenreOptions struct {
	Threshold      int64
	TopN           int
	HistogramWidth int
}

// DefaultGenreOptions returns the genre report defaults
func DefaultGenreOptions() GenreOptions {
	return GenreOptions{Threshold: 5000, TopN: 10, HistogramWidth: 40}
}

// CleaningMarkdown renders data_cleaning_report.md
func CleaningMarkdown(reports []*cleaning.Report, stats domain.MergeStats) string {
	lines := []string{"# Data Cleaning Report\n"}
	for _, r := range reports {
		lines = append(lines, r.Render())
	}
	lines = append(lines,
		"## Ratings ↔ Movies Merge\n",
		fmt.Sprintf("- Ratings rows before merge: %d\n- Ratings rows after merge: %d\n- Ratings without matching movie_id: %d\n",
			stats.RatingsRows, stats.MergedRows, stats.DroppedUnmatched),
	)
	return strings.Join(lines, "\n")
}

// AggregatesMarkdown renders movie_aggregates_summary.md
func AggregatesMarkdown(summary domain.AggregateSummary) string {
	lines := []string{
		"# Movie Aggregates Summary\n",
		fmt.Sprintf("- Movies with ratings: %d\n", summary.MoviesWithRatings),
		fmt.Sprintf("- Median rating count: %.0f\n", summary.MedianRatingCount),
		fmt.Sprintf("- Median user count: %.0f\n", summary.MedianUserCount),
		fmt.Sprintf("- Mean user rating (global): %.2f\n", summary.GlobalMeanRating),
	}
	if len(summary.TopRated) > 0 {
		lines = append(lines, fmt.Sprintf("## Top Rated (≥%d ratings)\n", summary.TopRatedMin))
		for _, a := range summary.TopRated {
			lines = append(lines, fmt.Sprintf("- %s: %s average from %d ratings\n",
				a.MovieTitle, dataprocessing.FormatPyFloat(a.RatingMean), a.RatingCount))
		}
	}
	return strings.Join(lines, "\n")
}

// GenreMarkdown renders genre_analysis_report.md
func GenreMarkdown(genres domain.GenreAnalysis, dist []domain.RatingBucket, opts GenreOptions) string {
	assignments := 0
	for _, g := range genres.Genres {
		assignments += g.MovieCount
	}
	threshold := exporter.FormatThousands(opts.Threshold)

	lines := []string{
		"# Genre Analysis Report\n",
		fmt.Sprintf("- Genres evaluated: %d", len(genres.Genres)),
		fmt.Sprintf("- Movies with at least one genre: %d", genres.MoviesWithGenre),
		fmt.Sprintf("- Genre assignments across all movies: %d\n", assignments),
	}

	lines = append(lines, fmt.Sprintf("## Top Genres by Rating Volume (≥ %s ratings)\n", threshold))
	byVolume := analysis.TopByVolume(genres.Genres, opts.Threshold, opts.TopN)
	for _, g := range byVolume {
		lines = append(lines, fmt.Sprintf("- %s: %s ratings across %d movies (avg: %s)",
			g.Key, exporter.FormatThousands(g.TotalRatings), g.MovieCount, dataprocessing.FormatPyFloat(g.AvgRating)))
	}
	if len(byVolume) == 0 {
		lines = append(lines, "- No genres reached the minimum rating threshold.")
	}
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("## Highest Rated Genres (≥ %s ratings)\n", threshold))
	byRating := analysis.TopByRating(genres.Genres, opts.Threshold, opts.TopN)
	for _, g := range byRating {
		lines = append(lines, fmt.Sprintf("- %s: average %s from %s ratings (median movie: %s)",
			g.Key, dataprocessing.FormatPyFloat(g.AvgRating), exporter.FormatThousands(g.TotalRatings),
			dataprocessing.FormatPyFloat(g.MedianMovieRating)))
	}
	if len(byRating) == 0 {
		lines = append(lines, "- No genres reached the minimum rating threshold.")
	}
	lines = append(lines, "")

	lines = append(lines, "## Rating Distribution (all ratings)\n")
	for _, b := range dist {
		lines = append(lines, fmt.Sprintf("- %d: %s ratings (%.2f%%)",
			b.RatingVal, exporter.FormatThousands(b.RatingCount), b.Share*100))
	}
	lines = append(lines, "")
	lines = append(lines, ASCIIHistogram(dist, opts.HistogramWidth)...)
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

// ASCIIHistogram draws the rating distribution as a fenced text chart. Bars
// are scaled so the most frequent rating spans width characters.
func ASCIIHistogram(dist []domain.RatingBucket, width int) []string {
	if len(dist) == 0 {
		return nil
	}
	var maxCount int64
	for _, b := range dist {
		if b.RatingCount > maxCount {
			maxCount = b.RatingCount
		}
	}

	lines := []string{"```\nRating | Distribution", "------ | ------------"}
	for _, b := range dist {
		barLen := 0
		if maxCount > 0 {
			barLen = int(math.RoundToEven(float64(b.RatingCount) / float64(maxCount) * float64(width)))
		}
		lines = append(lines, fmt.Sprintf("%6d | %-*s %5.2f%% (%s)",
			b.RatingVal, width, strings.Repeat("#", barLen), b.Share*100, exporter.FormatThousands(b.RatingCount)))
	}
	return append(lines, "```")
}

// YearLanguageMarkdown renders year_language_report.md
func YearLanguageMarkdown(years domain.YearAnalysis, languages []domain.LanguageStats) string {
	var sb strings.Builder
	sb.WriteString("# Release Year and Language Report\n\n")
	fmt.Fprintf(&sb, "- Release years covered: %d\n", len(years.Years))
	fmt.Fprintf(&sb, "- Movies without a release year: %d\n", years.MoviesUndated)
	fmt.Fprintf(&sb, "- Original languages: %d\n\n", len(languages))

	sb.WriteString("## Ratings by Release Year\n\n")
	writeCategoryTable(&sb, "Year", years.Years)
	sb.WriteString("\n## Ratings by Original Language\n\n")
	writeCategoryTable(&sb, "Language", languages)
	return sb.String()
}

func writeCategoryTable(sb *strings.Builder, keyHeader string, stats []domain.CategoryStats) {
	if len(stats) == 0 {
		sb.WriteString("_No rated movies._\n")
		return
	}
	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{keyHeader, "Movies", "Ratings", "Avg rating", "Median movie rating"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, s := range stats {
		table.Append([]string{
			s.Key,
			strconv.Itoa(s.MovieCount),
			exporter.FormatThousands(s.TotalRatings),
			dataprocessing.FormatPyFloat(s.AvgRating),
			dataprocessing.FormatPyFloat(s.MedianMovieRating),
		})
	}
	table.Render()
}
