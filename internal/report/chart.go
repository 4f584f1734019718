package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
	"github.com/blackwell-systems/cropflow/internal/crop"
)

// Chart dimensions.
const (
	ChartWidth  = 10 * vg.Inch
	ChartHeight = 5 * vg.Inch
)

// ForecastChart plots a production series with its least-squares trend line
// and the forecast for the target year.
func ForecastChart(s *analyzer.Series, target int) (*plot.Plot, error) {
	if s == nil || len(s.Points) == 0 {
		return nil, fmt.Errorf("no observations to chart")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s production forecast", s.Key)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Crop year"
	p.Y.Label.Text = "Production (t)"

	observed := make(plotter.XYs, len(s.Points))
	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		observed[i].X = float64(pt.Year)
		observed[i].Y = pt.Production
		xs[i], ys[i] = observed[i].X, observed[i].Y
	}

	line, err := plotter.NewLine(observed)
	if err != nil {
		return nil, fmt.Errorf("observed line: %w", err)
	}
	line.Color = color.RGBA{R: 0, G: 100, B: 0, A: 255}
	line.Width = vg.Points(2)

	marks, err := plotter.NewScatter(observed)
	if err != nil {
		return nil, fmt.Errorf("observed points: %w", err)
	}
	marks.GlyphStyle.Shape = draw.CircleGlyph{}
	marks.GlyphStyle.Radius = vg.Points(3)

	p.Add(plotter.NewGrid(), line, marks)
	p.Legend.Add("observed", line, marks)

	if slope, intercept, ok := analyzer.FitLine(xs, ys); ok {
		fit := plotter.NewFunction(func(x float64) float64 { return slope*x + intercept })
		fit.Color = color.RGBA{R: 100, G: 100, B: 100, A: 255}
		fit.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(fit)
		p.Legend.Add("trend", fit)
	}

	fr := analyzer.ForecastSeries(s.Points, target)
	predicted, err := plotter.NewScatter(plotter.XYs{{X: float64(target), Y: fr.Production}})
	if err != nil {
		return nil, fmt.Errorf("forecast point: %w", err)
	}
	predicted.GlyphStyle.Shape = draw.PyramidGlyph{}
	predicted.GlyphStyle.Radius = vg.Points(5)
	predicted.GlyphStyle.Color = color.RGBA{R: 239, G: 83, B: 80, A: 255}
	p.Add(predicted)
	p.Legend.Add(fmt.Sprintf("forecast %s", crop.YearLabel(target)), predicted)
	p.Legend.Top = true

	p.X.Min = float64(s.Points[0].Year) - 1
	p.X.Max = float64(max(target, s.LastYear())) + 1
	p.Y.Min = 0
	return p, nil
}

// WriteChartPNG renders the plot as PNG to w.
func WriteChartPNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(ChartWidth, ChartHeight, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}

// SaveChart renders the plot to a file; the format follows the extension.
func SaveChart(path string, p *plot.Plot) error {
	if err := p.Save(ChartWidth, ChartHeight, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}
