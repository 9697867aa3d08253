// Package plots renders the exploratory figures for a run: a grid of
// per-column histograms with density overlays, an annotated correlation
// heatmap, and the Random Forest feature-importance bar chart. Figures
// are written as PNG files.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/limnoml/oxypred/dataset"
	"github.com/limnoml/oxypred/pkg/errors"
)

const (
	gridRows = 3
	gridCols = 3
)

var (
	histColor    = color.RGBA{R: 114, G: 158, B: 206, A: 255}
	densityColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	barColor     = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// HistogramGrid renders one histogram-with-density-curve per column in
// a 3x3 grid and writes the figure to path.
func HistogramGrid(t *dataset.Table, columns []string, path string) error {
	if len(columns) == 0 {
		return errors.NewValueError("HistogramGrid", "no columns to plot")
	}
	if len(columns) > gridRows*gridCols {
		return errors.NewValidationError("columns", fmt.Sprintf("at most %d columns fit the grid", gridRows*gridCols), len(columns))
	}

	grid := make([][]*plot.Plot, gridRows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, gridCols)
	}

	for k, name := range columns {
		vals, err := t.Column(name)
		if err != nil {
			return err
		}
		p, err := histogramPlot(name, vals)
		if err != nil {
			return err
		}
		grid[k/gridCols][k%gridCols] = p
	}

	return writeGrid(grid, path)
}

func histogramPlot(name string, vals []float64) (*plot.Plot, error) {
	observed := make(plotter.Values, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return nil, errors.NewValueError("HistogramGrid", fmt.Sprintf("column %q has no observed values", name))
	}

	p := plot.New()
	p.Title.Text = name
	p.Y.Label.Text = "density"

	hist, err := plotter.NewHist(observed, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "histogram for %q", name)
	}
	hist.Normalize(1)
	hist.FillColor = histColor
	p.Add(hist)

	// Overlay a normal density fitted to the observed values. Skipped
	// for constant columns where the density is degenerate.
	mean := stat.Mean(observed, nil)
	std := stat.StdDev(observed, nil)
	if std > 0 && !math.IsNaN(std) {
		pdf := plotter.NewFunction(func(x float64) float64 {
			z := (x - mean) / std
			return math.Exp(-z*z/2) / (std * math.Sqrt(2*math.Pi))
		})
		pdf.Samples = 200
		pdf.LineStyle.Color = densityColor
		pdf.LineStyle.Width = vg.Points(1.5)
		p.Add(pdf)
	}

	return p, nil
}

func writeGrid(grid [][]*plot.Plot, path string) error {
	img := vgimg.New(vg.Points(960), vg.Points(960))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: gridRows,
		Cols: gridCols,
		PadX: vg.Points(12),
		PadY: vg.Points(12),
	}

	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] != nil {
				grid[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// corrGrid adapts a correlation matrix to the heatmap's grid interface.
type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (c, r int) {
	n := g.m.SymmetricDim()
	return n, n
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

func (g corrGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CorrelationHeatmap renders corr as an annotated heatmap with the
// given axis labels and writes it to path.
func CorrelationHeatmap(corr *mat.SymDense, labels []string, path string) error {
	n := corr.SymmetricDim()
	if n != len(labels) {
		return errors.NewDimensionError("CorrelationHeatmap", n, len(labels), 1)
	}

	p := plot.New()
	p.Title.Text = "Correlation"

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	heatmap := plotter.NewHeatMap(corrGrid{m: corr}, cm.Palette(255))
	heatmap.Min = -1
	heatmap.Max = 1
	p.Add(heatmap)

	// Annotate each cell with its coefficient.
	annotations := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, n*n),
		Labels: make([]string, 0, n*n),
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			annotations.XYs = append(annotations.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			v := corr.At(r, c)
			label := "n/a"
			if !math.IsNaN(v) {
				label = fmt.Sprintf("%.2f", v)
			}
			annotations.Labels = append(annotations.Labels, label)
		}
	}
	labelPlot, err := plotter.NewLabels(annotations)
	if err != nil {
		return errors.Wrap(err, "heatmap annotations")
	}
	p.Add(labelPlot)

	p.NominalX(labels...)
	p.NominalY(labels...)

	return p.Save(vg.Points(640), vg.Points(560), path)
}

// ImportanceBarChart renders feature importances as a descending bar
// chart and writes it to path.
func ImportanceBarChart(names []string, importances []float64, path string) error {
	if len(names) != len(importances) {
		return errors.NewDimensionError("ImportanceBarChart", len(names), len(importances), 1)
	}
	if len(names) == 0 {
		return errors.NewValueError("ImportanceBarChart", "no features")
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return importances[order[a]] > importances[order[b]]
	})

	sortedVals := make(plotter.Values, len(order))
	sortedNames := make([]string, len(order))
	for i, idx := range order {
		sortedVals[i] = importances[idx]
		sortedNames[i] = names[idx]
	}

	p := plot.New()
	p.Title.Text = "Random Forest feature importance"
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(sortedVals, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "importance bars")
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(sortedNames...)

	return p.Save(vg.Points(720), vg.Points(400), path)
}
