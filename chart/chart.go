// Package chart draws the commit series and phase breakdown of a React
// profiler capture with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
)

// Image formats accepted by Write.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// DefaultWidth and DefaultHeight size a chart when the caller has no opinion.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

const dpi = 150

var ErrUnsupportedFormat = errors.New("unsupported image format")

var (
	renderColor  = rgb(0x3b, 0x82, 0xf6)
	effectColor  = rgb(0xa8, 0x55, 0xf7)
	passiveColor = rgb(0x14, 0xb8, 0xa6)
)

// RenderTimes draws render, effect and passive effect duration per commit, in
// the order of points, with dashed reference lines at the three bounds of th.
func RenderTimes(points []analyzer.CommitPoint, th analyzer.Thresholds) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = "Commit Render Times"
	pl.X.Label.Text = "commit"
	pl.Y.Label.Text = "duration (ms)"
	pl.Y.Min = 0
	pl.Add(plotter.NewGrid())

	render := make(plotter.XYs, len(points))
	effect := make(plotter.XYs, len(points))
	passive := make(plotter.XYs, len(points))
	ymax := th.Critical
	for i, p := range points {
		x := float64(i + 1)
		render[i] = plotter.XY{X: x, Y: p.RenderDuration}
		effect[i] = plotter.XY{X: x, Y: p.EffectDuration}
		passive[i] = plotter.XY{X: x, Y: p.PassiveEffectDuration}
		ymax = math.Max(ymax, math.Max(p.RenderDuration, math.Max(p.EffectDuration, p.PassiveEffectDuration)))
	}

	for _, s := range []struct {
		name string
		xys  plotter.XYs
		clr  color.Color
	}{
		{"render", render, renderColor},
		{"effect", effect, effectColor},
		{"passive effect", passive, passiveColor},
	} {
		if len(s.xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s series: %w", s.name, err)
		}
		line.Color = s.clr
		line.Width = vg.Points(1.5)
		pl.Add(line)
		pl.Legend.Add(s.name, line)
	}

	for _, ref := range []struct {
		status analyzer.PerformanceStatus
		value  float64
	}{
		{analyzer.StatusGood, th.Good},
		{analyzer.StatusWarning, th.Warning},
		{analyzer.StatusCritical, th.Critical},
	} {
		value := ref.value
		f := plotter.NewFunction(func(float64) float64 { return value })
		f.Color = statusColor(ref.status)
		f.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		f.Width = vg.Points(1)
		pl.Add(f)
		pl.Legend.Add(fmt.Sprintf("%s (%gms)", ref.status, value), f)
	}

	pl.X.Min = 1
	pl.X.Max = math.Max(2, float64(len(points)))
	pl.Y.Max = ymax * 1.1
	pl.Legend.Top = true
	return pl, nil
}

// Phases draws one stacked bar per commit: render at the bottom, then effect,
// then passive effect. Bars are labelled with the root name and the commit
// label, so "App Commit 1" and "Modal Commit 1" stay distinct.
func Phases(points []analyzer.PhasePoint) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = "Render Phases"
	pl.Y.Label.Text = "duration (ms)"
	pl.Add(plotter.NewGrid())
	if len(points) == 0 {
		return pl, nil
	}

	render := make(plotter.Values, len(points))
	effect := make(plotter.Values, len(points))
	passive := make(plotter.Values, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		render[i] = p.Render
		effect[i] = p.Effect
		passive[i] = p.PassiveEffect
		labels[i] = strings.TrimSpace(p.Root + " " + p.Label)
	}

	w := vg.Points(14)
	var below *plotter.BarChart
	for _, s := range []struct {
		name string
		vals plotter.Values
		clr  color.Color
	}{
		{"render", render, renderColor},
		{"effect", effect, effectColor},
		{"passive effect", passive, passiveColor},
	} {
		bars, err := plotter.NewBarChart(s.vals, w)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s bars: %w", s.name, err)
		}
		bars.Color = s.clr
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		pl.Add(bars)
		pl.Legend.Add(s.name, bars)
	}

	pl.NominalX(labels...)
	pl.X.Tick.Label.Rotation = -math.Pi / 8
	pl.X.Tick.Label.YAlign = draw.YTop
	pl.X.Tick.Label.XAlign = draw.XLeft
	pl.Legend.Top = true
	return pl, nil
}

// Named pairs a chart with the base name of the file it is saved under.
type Named struct {
	Name string
	Plot *plot.Plot
}

// Build draws the render-time and phase charts, named "render_times" and
// "phases".
func Build(commits []analyzer.CommitPoint, phases []analyzer.PhasePoint, th analyzer.Thresholds) ([]Named, error) {
	renderTimes, err := RenderTimes(commits, th)
	if err != nil {
		return nil, err
	}
	phaseBars, err := Phases(phases)
	if err != nil {
		return nil, err
	}
	return []Named{
		{Name: "render_times", Plot: renderTimes},
		{Name: "phases", Plot: phaseBars},
	}, nil
}

// SaveAll writes each chart to dir/<name>.<format>, creating dir when
// missing, and returns the written paths in order. A file that fails to
// render is removed.
func SaveAll(dir, format string, width, height vg.Length, charts ...Named) ([]string, error) {
	if !supported(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory '%s': %w", dir, err)
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(dir, c.Name+"."+format)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create '%s': %w", path, err)
		}
		err = Write(c.Plot, f, format, width, height)
		closeErr := f.Close()
		if err != nil {
			os.Remove(path)
			return nil, err
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close '%s': %w", path, closeErr)
		}
		zap.S().Debugf("Wrote chart %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func supported(format string) bool {
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		return true
	}
	return false
}

// Write draws pl onto a canvas of the given size and writes it to w in format.
func Write(pl *plot.Plot, w io.Writer, format string, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var can vg.CanvasWriterTo
	switch format {
	case FormatSVG:
		can = vgsvg.New(width, height)
	case FormatPNG:
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	case FormatPDF:
		can = vgpdf.New(width, height)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	pl.Draw(draw.New(can))
	if _, err := can.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s chart: %w", format, err)
	}
	return nil
}

func statusColor(s analyzer.PerformanceStatus) color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(s.Color(), "#"), 16, 32)
	if err != nil {
		return color.Gray{Y: 0x80}
	}
	return rgb(uint8(v>>16), uint8(v>>8), uint8(v))
}

func rgb(r, g, b uint8) color.Color {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
