package report

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"filmstats/internal/analysis"
	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 4.5 * vg.Inch
)

var (
	distributionColor = color.RGBA{R: 0x37, G: 0x76, B: 0xab, A: 0xff}
	genreColor        = color.RGBA{R: 0xff, G: 0xb7, B: 0x03, A: 0xff}
)

// RatingDistributionChart draws a bar chart of rating counts. It returns
// false without writing when there is nothing to plot.
func RatingDistributionChart(path string, dist []domain.RatingBucket) (bool, error) {
	if len(dist) == 0 {
		return false, nil
	}

	values := make(plotter.Values, len(dist))
	labels := make([]string, len(dist))
	for i, b := range dist {
		values[i] = float64(b.RatingCount)
		labels[i] = strconv.Itoa(b.RatingVal)
	}

	p := plot.New()
	p.Title.Text = "Letterboxd Rating Distribution"
	p.X.Label.Text = "Rating"
	p.Y.Label.Text = "Number of Ratings"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return false, fmt.Errorf("build rating bars: %w", err)
	}
	bars.Color = distributionColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	p.Y.Min = 0

	return true, savePNG(p, path)
}

// TopGenresChart draws the best-rated genres with at least threshold ratings
// as horizontal bars, best at the top. It returns false without writing when
// no genre qualifies.
func TopGenresChart(path string, genres []domain.GenreStats, threshold int64, n int) (bool, error) {
	top := analysis.TopByRating(genres, threshold, n)
	if len(top) == 0 {
		return false, nil
	}

	values := make(plotter.Values, len(top))
	labels := make([]string, len(top))
	for i, g := range top {
		j := len(top) - 1 - i
		values[j] = g.AvgRating
		labels[j] = g.Key
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top Genres by Average Rating (≥ %s ratings)", exporter.FormatThousands(threshold))
	p.X.Label.Text = "Average Rating"
	p.X.Min = 0
	p.X.Max = 10

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return false, fmt.Errorf("build genre bars: %w", err)
	}
	bars.Horizontal = true
	bars.Color = genreColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)

	return true, savePNG(p, path)
}

func savePNG(p *plot.Plot, path string) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return exporter.WriteFile(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
