package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteHistogram renders a histogram of the given values to a PNG file.
// binWidth controls the bucket size; values spanning less than one bin
// still produce a single-bin plot.
func WriteHistogram(values []float64, binWidth float64, title, path string) error {
	if len(values) == 0 {
		return fmt.Errorf("no values to plot")
	}
	if binWidth <= 0 {
		return fmt.Errorf("bin width must be positive, got %g", binWidth)
	}

	min, max := values[0], values[0]
	pts := make(plotter.Values, len(values))
	for i, v := range values {
		pts[i] = v
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	bins := int(math.Ceil((max - min) / binWidth))
	if bins < 1 {
		bins = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "error rate"
	p.Y.Label.Text = "pages"

	h, err := plotter.NewHist(pts, bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
