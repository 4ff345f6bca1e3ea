package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/config"
)

const fixture = "profiler/testdata/profile.json"

func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult, i int) string {
	t.Helper()
	require.NotNil(t, res)
	require.Greater(t, len(res.Content), i)
	text, ok := res.Content[i].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func testHandlers() *toolHandlers {
	return newToolHandlers(config.Default())
}

func TestHandleAnalyzeReactProfileDefaults(t *testing.T) {
	res, err := testHandlers().handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
	}))
	require.NoError(t, err)
	text := resultText(t, res, 0)
	assert.Contains(t, text, "React Profiler Analysis (React 18.2.0)")
	assert.Contains(t, text, "Slowest Components")
}

func TestHandleAnalyzeReactProfileJSON(t *testing.T) {
	res, err := testHandlers().handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{
		"profile_uri":   fixture,
		"view":          analyzer.ViewCommits,
		"output_format": analyzer.FormatJSON,
	}))
	require.NoError(t, err)

	var commits []analyzer.CommitPoint
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res, 0)), &commits))
	assert.Len(t, commits, 3)
}

func TestHandleAnalyzeReactProfileTopN(t *testing.T) {
	res, err := testHandlers().handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
		"top_n":       2.0,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res, 0), "Top 2 by")
}

func TestHandleAnalyzeReactProfileErrors(t *testing.T) {
	h := testHandlers()

	_, err := h.handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{}))
	assert.ErrorContains(t, err, "profile_uri")

	_, err = h.handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
		"view":        "heatmap",
	}))
	assert.ErrorIs(t, err, analyzer.ErrUnsupportedView)

	_, err = h.handleAnalyzeReactProfile(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": filepath.Join(t.TempDir(), "missing.json"),
	}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHandleRenderReactCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	res, err := testHandlers().handleRenderReactCharts(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
		"output_dir":  dir,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res, 0), "Rendered 2 charts")

	for _, name := range []string{"render_times.svg", "phases.svg"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "<svg", name)
	}
}

func TestHandleRenderReactChartsBadFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := testHandlers().handleRenderReactCharts(context.Background(), newRequest(map[string]interface{}{
		"profile_uri":  fixture,
		"output_dir":   dir,
		"image_format": "bmp",
	}))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleExportReactPprof(t *testing.T) {
	out := filepath.Join(t.TempDir(), "react.pb.gz")
	res, err := testHandlers().handleExportReactPprof(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
		"output_path": out,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res, 0), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	p, err := profile.Parse(f)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Sample)
}

func TestHandleGenerateReactFlamegraphArgs(t *testing.T) {
	_, err := testHandlers().handleGenerateReactFlamegraph(context.Background(), newRequest(map[string]interface{}{
		"profile_uri": fixture,
	}))
	assert.ErrorContains(t, err, "output_svg_path")
}

func TestHandleOpenInteractivePprofArgs(t *testing.T) {
	_, err := testHandlers().handleOpenInteractivePprof(context.Background(), newRequest(map[string]interface{}{}))
	assert.ErrorContains(t, err, "profile_uri")
}

func TestHandleDisconnectPprofSession(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command(sleep, "30")
	require.NoError(t, cmd.Start())

	h := testHandlers()
	cleaned := false
	pid := h.sessions.add(&pprofSession{process: cmd.Process, cleanup: func() { cleaned = true }})

	res, err := h.handleDisconnectPprofSession(context.Background(), newRequest(map[string]interface{}{
		"pid": float64(pid),
	}))
	require.NoError(t, err)
	assert.True(t, strings.Contains(resultText(t, res, 0), "PID"))
	assert.True(t, cleaned)

	// A second disconnect finds nothing.
	_, err = h.handleDisconnectPprofSession(context.Background(), newRequest(map[string]interface{}{
		"pid": float64(pid),
	}))
	assert.Error(t, err)
}

func TestHandleDisconnectPprofSessionArgs(t *testing.T) {
	h := testHandlers()
	_, err := h.handleDisconnectPprofSession(context.Background(), newRequest(map[string]interface{}{}))
	assert.Error(t, err)
	_, err = h.handleDisconnectPprofSession(context.Background(), newRequest(map[string]interface{}{"pid": -3.0}))
	assert.Error(t, err)
}

func TestSessionManagerTerminateAll(t *testing.T) {
	m := newSessionManager()
	m.terminateAll()

	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	var cleaned atomic.Int32
	for i := 0; i < 2; i++ {
		cmd := exec.Command(sleep, "30")
		require.NoError(t, cmd.Start())
		m.add(&pprofSession{process: cmd.Process, cleanup: func() { cleaned.Add(1) }})
	}
	m.terminateAll()
	assert.Equal(t, int32(2), cleaned.Load())
	assert.Empty(t, m.drain())
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newServer(testHandlers()))
}
