// Package plot renders evaluation charts to PNG files.
package plot

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/Brownie44l1/tl-eval/internal/metrics"
	"github.com/Brownie44l1/tl-eval/internal/report"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ConfusionSuffix is appended to the title to name confusion matrix images.
const ConfusionSuffix = "_Confusion_Matrix.png"

var barColor = color.RGBA{R: 255, G: 165, A: 255}

// F1Chart draws a bar per class with its F1 score and saves it as
// <dir>/<title>.png, spaces in the title replaced by underscores. It returns
// the written path.
func F1Chart(table *report.Table, title, dir string) (string, error) {
	if table.Len() == 0 {
		return "", common.Errorf(common.ErrSchema, "report has no classes to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Classes"
	p.Y.Label.Text = "F1 Score"

	bars, err := plotter.NewBarChart(plotter.Values(table.F1Scores()), vg.Points(8))
	if err != nil {
		return "", common.Wrap(common.ErrSchema, "build bar chart", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	p.NominalX(table.ClassNames()...)
	rotateTickLabels(p, 5)
	p.X.Min = -0.5
	p.X.Max = float64(table.Len()) - 0.5
	p.Y.Min = 0

	return save(p, 10*vg.Inch, 5*vg.Inch, dir, report.FileName(title, ".png"))
}

// ConfusionHeatMap draws cm as a heat map with true classes on the y axis and
// predicted classes on the x axis, and saves it as <dir>/<title>_Confusion_Matrix.png.
func ConfusionHeatMap(cm *metrics.ConfusionMatrix, title, dir string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Ground truth"

	hm := plotter.NewHeatMap(confusionGrid{cm: cm}, palette.Heat(64, 1))
	hm.Min = 0
	hm.Max = math.Max(float64(cm.Max()), 1)
	p.Add(hm)

	classes := cm.Classes()
	p.NominalX(classes...)
	p.NominalY(classes...)
	rotateTickLabels(p, 8)
	p.Y.Tick.Label.Font.Size = vg.Points(8)

	n := float64(cm.Size())
	p.X.Min, p.X.Max = -0.5, n-0.5
	p.Y.Min, p.Y.Max = -0.5, n-0.5

	return save(p, 12*vg.Inch, 12*vg.Inch, dir, report.FileName(title, ConfusionSuffix))
}

func rotateTickLabels(p *plot.Plot, size float64) {
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(size)
}

func save(p *plot.Plot, w, h vg.Length, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", common.Wrap(common.ErrIO, "create output directory", err)
	}
	path := filepath.Join(dir, name)
	if err := p.Save(w, h, path); err != nil {
		return "", common.Wrap(common.ErrIO, "save "+path, err)
	}
	return path, nil
}

// confusionGrid adapts a confusion matrix to plotter.GridXYZ: column c is the
// predicted class, row r the true class.
type confusionGrid struct {
	cm *metrics.ConfusionMatrix
}

func (g confusionGrid) Dims() (c, r int) {
	return g.cm.Size(), g.cm.Size()
}

func (g confusionGrid) Z(c, r int) float64 {
	return float64(g.cm.At(r, c))
}

func (g confusionGrid) X(c int) float64 {
	return float64(c)
}

func (g confusionGrid) Y(r int) float64 {
	return float64(r)
}
