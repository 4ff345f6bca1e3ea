package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
)

const fixture = "../../profiler/testdata/profile.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	out, err := execute(t, "analyze", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "React Profiler Analysis (React 18.2.0)")
}

func TestAnalyzeJSONView(t *testing.T) {
	out, err := execute(t, "analyze", fixture, "--view", "tree", "--format", "json")
	require.NoError(t, err)
	var tree []analyzer.RootNode
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Len(t, tree, 2)
}

func TestAnalyzeWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 1\nlog_level: error\n"), 0o644))

	out, err := execute(t, "--config", path, "analyze", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Top 1 by")
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.Error(t, err)

	_, err = execute(t, "analyze", fixture, "--format", "xml")
	assert.ErrorIs(t, err, analyzer.ErrUnsupportedFormat)

	_, err = execute(t, "--log-level", "loud", "analyze", fixture)
	assert.Error(t, err)
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "charts", fixture, "--out", dir, "--image-format", "png")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "phases.png"))

	data, err := os.ReadFile(filepath.Join(dir, "render_times.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestChartsRequiresOut(t *testing.T) {
	_, err := execute(t, "charts", fixture)
	assert.Error(t, err)
}

func TestExportPprof(t *testing.T) {
	path := filepath.Join(t.TempDir(), "react.pb.gz")
	out, err := execute(t, "export-pprof", fixture, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	p, err := profile.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, "self", p.DefaultSampleType)
}
