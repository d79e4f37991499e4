package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart renders the per-category instruction mix as a bar chart and
// saves it to path. The image format follows the file extension.
func (c *Collector) Chart(path string) error {
	if c.total == 0 {
		return fmt.Errorf("no instructions recorded")
	}

	var (
		values plotter.Values
		labels []string
	)
	for _, cat := range Categories() {
		count := c.byCategory[cat]
		if count == 0 {
			continue
		}
		values = append(values, float64(count))
		labels = append(labels, cat.String())
	}

	p := plot.New()
	p.Title.Text = "Instruction Mix"
	p.Y.Label.Text = "Instructions"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}
