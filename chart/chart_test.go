package chart_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/chart"
)

var commits = []analyzer.CommitPoint{
	{Root: "App", CommitIndex: 1, RenderDuration: 12, EffectDuration: 1.5, PassiveEffectDuration: 0.5},
	{Root: "App", CommitIndex: 2, RenderDuration: 30, PassiveEffectDuration: 2},
	{Root: "Modal", CommitIndex: 1, RenderDuration: 6, EffectDuration: 0.25},
}

var phases = []analyzer.PhasePoint{
	{Root: "App", Label: "Commit 1", Render: 12, Effect: 1.5, PassiveEffect: 0.5, Total: 14},
	{Root: "App", Label: "Commit 2", Render: 30, PassiveEffect: 2, Total: 32},
	{Root: "Modal", Label: "Commit 1", Render: 6, Effect: 0.25, Total: 6.25},
}

func TestRenderTimesSVG(t *testing.T) {
	pl, err := chart.RenderTimes(commits, analyzer.RenderTimeThresholds())
	require.NoError(t, err)
	assert.Equal(t, "Commit Render Times", pl.Title.Text)
	assert.GreaterOrEqual(t, pl.Y.Max, 100.0)

	var buf bytes.Buffer
	require.NoError(t, chart.Write(pl, &buf, chart.FormatSVG, 0, 0))
	assert.Contains(t, buf.String(), "<svg")
}

func TestPhasesPNG(t *testing.T) {
	pl, err := chart.Phases(phases)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, chart.Write(pl, &buf, chart.FormatPNG, chart.DefaultWidth, chart.DefaultHeight))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestEmptySeries(t *testing.T) {
	pl, err := chart.RenderTimes(nil, analyzer.RenderTimeThresholds())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, chart.Write(pl, &buf, chart.FormatSVG, 0, 0))
	assert.NotZero(t, buf.Len())

	pl, err = chart.Phases(nil)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, chart.Write(pl, &buf, chart.FormatPDF, 0, 0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteUnsupportedFormat(t *testing.T) {
	pl, err := chart.Phases(phases)
	require.NoError(t, err)
	err = chart.Write(pl, &bytes.Buffer{}, "gif", 0, 0)
	assert.ErrorIs(t, err, chart.ErrUnsupportedFormat)
}

func TestPhasesTickLabels(t *testing.T) {
	pl, err := chart.Phases(phases)
	require.NoError(t, err)

	ticks, ok := pl.X.Tick.Marker.(plot.ConstantTicks)
	require.True(t, ok)
	var labels []string
	for _, tick := range ticks {
		labels = append(labels, tick.Label)
	}
	assert.Equal(t, []string{"App Commit 1", "App Commit 2", "Modal Commit 1"}, labels)
}

func TestPhasesTickLabelWithoutRoot(t *testing.T) {
	pl, err := chart.Phases([]analyzer.PhasePoint{{Label: "Commit 1", Render: 3, Total: 3}})
	require.NoError(t, err)

	ticks, ok := pl.X.Tick.Marker.(plot.ConstantTicks)
	require.True(t, ok)
	require.Len(t, ticks, 1)
	assert.Equal(t, "Commit 1", ticks[0].Label)
}

func TestBuild(t *testing.T) {
	charts, err := chart.Build(commits, phases, analyzer.RenderTimeThresholds())
	require.NoError(t, err)
	require.Len(t, charts, 2)
	assert.Equal(t, "render_times", charts[0].Name)
	assert.Equal(t, "Commit Render Times", charts[0].Plot.Title.Text)
	assert.Equal(t, "phases", charts[1].Name)
	assert.Equal(t, "Render Phases", charts[1].Plot.Title.Text)
}

func TestSaveAll(t *testing.T) {
	charts, err := chart.Build(commits, phases, analyzer.RenderTimeThresholds())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "charts")
	paths, err := chart.SaveAll(dir, chart.FormatSVG, 0, 0, charts...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "render_times.svg"),
		filepath.Join(dir, "phases.svg"),
	}, paths)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		assert.Contains(t, string(data), "<svg", path)
	}
}

func TestSaveAllUnsupportedFormat(t *testing.T) {
	charts, err := chart.Build(commits, phases, analyzer.RenderTimeThresholds())
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := chart.SaveAll(dir, "gif", 0, 0, charts...)
	assert.ErrorIs(t, err, chart.ErrUnsupportedFormat)
	assert.Nil(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
