package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/chart"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/config"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/source"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// toolHandlers serves the MCP tools. cfg is read-only after start.
type toolHandlers struct {
	cfg      *config.Config
	sessions *sessionManager
}

func newToolHandlers(cfg *config.Config) *toolHandlers {
	return &toolHandlers{
		cfg:      cfg,
		sessions: newSessionManager(),
	}
}

func requiredString(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing or invalid required argument: %s (string)", name)
	}
	return v, nil
}

func optionalString(args map[string]interface{}, name, def string) string {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return def
	}
	return v
}

// absPath resolves p against the server's working directory.
func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path '%s': %w", p, err)
	}
	zap.S().Debugf("Resolved relative output path to %s", abs)
	return abs, nil
}

func textResult(texts ...string) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(texts))
	for _, text := range texts {
		content = append(content, mcp.TextContent{
			Type: "text",
			Text: text,
		})
	}
	return &mcp.CallToolResult{Content: content}
}

func loadProfile(ctx context.Context, uri string) (*profiler.Document, error) {
	doc, err := source.Load(ctx, uri)
	if err != nil {
		zap.S().Errorf("Error loading profile '%s': %v", uri, err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	zap.S().Debugf("Loaded profile '%s' with %d roots", uri, len(doc.DataForRoots))
	return doc, nil
}

// writePprofFile writes the pprof conversion of doc to path and returns its size.
func writePprofFile(doc *profiler.Document, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create '%s': %w", path, err)
	}
	if err := analyzer.WritePprof(doc, f); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close '%s': %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// writeTempPprof exports doc to a temporary file removed by cleanup.
func writeTempPprof(doc *profiler.Document) (path string, cleanup func(), err error) {
	tempFile, err := os.CreateTemp("", "react-pprof-*.pb.gz")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary pprof file: %w", err)
	}
	path = tempFile.Name()
	tempFile.Close()
	cleanup = func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.S().Warnf("Failed to remove temporary file '%s': %v", path, err)
		}
	}
	if _, err := writePprofFile(doc, path); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// handleAnalyzeReactProfile serves "analyze_react_profile".
func (h *toolHandlers) handleAnalyzeReactProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	profileURI, err := requiredString(args, "profile_uri")
	if err != nil {
		return nil, err
	}
	view := optionalString(args, "view", analyzer.ViewSummary)
	outputFormat := optionalString(args, "output_format", analyzer.FormatText)
	topN := h.cfg.TopN
	if topNFloat, ok := args["top_n"].(float64); ok && topNFloat > 0 {
		topN = int(topNFloat)
	}

	zap.S().Infof("Handling analyze_react_profile: URI=%s, View=%s, TopN=%d, Format=%s", profileURI, view, topN, outputFormat)

	doc, err := loadProfile(ctx, profileURI)
	if err != nil {
		return nil, err
	}
	report, err := analyzer.Analyze(ctx, doc, h.cfg.ThresholdSet())
	if err != nil {
		return nil, err
	}
	result, err := analyzer.FormatReport(report, view, outputFormat, topN)
	if err != nil {
		zap.S().Errorf("Formatting error for view '%s': %v", view, err)
		return nil, err
	}

	zap.S().Infof("Analysis successful for view '%s'. Result length: %d", view, len(result))
	return textResult(result), nil
}

// handleRenderReactCharts serves "render_react_charts".
func (h *toolHandlers) handleRenderReactCharts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	profileURI, err := requiredString(args, "profile_uri")
	if err != nil {
		return nil, err
	}
	outputDir, err := requiredString(args, "output_dir")
	if err != nil {
		return nil, err
	}
	imageFormat := optionalString(args, "image_format", chart.FormatSVG)

	zap.S().Infof("Handling render_react_charts: URI=%s, Dir=%s, Format=%s", profileURI, outputDir, imageFormat)

	if outputDir, err = absPath(outputDir); err != nil {
		return nil, err
	}
	doc, err := loadProfile(ctx, profileURI)
	if err != nil {
		return nil, err
	}
	paths, err := renderCharts(doc, h.cfg, outputDir, imageFormat)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Rendered %d charts:\n%s", len(paths), strings.Join(paths, "\n"))), nil
}

// renderCharts writes the render-time and phase charts of doc into dir.
func renderCharts(doc *profiler.Document, cfg *config.Config, dir, format string) ([]string, error) {
	th := cfg.ThresholdSet()
	charts, err := chart.Build(analyzer.CommitSeries(doc), analyzer.PhaseBreakdown(doc, th), th.Render)
	if err != nil {
		return nil, err
	}
	width, height := cfg.ChartSize()
	paths, err := chart.SaveAll(dir, format, width, height, charts...)
	if err != nil {
		return nil, err
	}
	zap.S().Infof("Wrote %d charts to %s", len(paths), dir)
	return paths, nil
}

// handleExportReactPprof serves "export_react_pprof".
func (h *toolHandlers) handleExportReactPprof(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	profileURI, err := requiredString(args, "profile_uri")
	if err != nil {
		return nil, err
	}
	outputPath, err := requiredString(args, "output_path")
	if err != nil {
		return nil, err
	}

	zap.S().Infof("Handling export_react_pprof: URI=%s, Output=%s", profileURI, outputPath)

	if outputPath, err = absPath(outputPath); err != nil {
		return nil, err
	}
	doc, err := loadProfile(ctx, profileURI)
	if err != nil {
		return nil, err
	}
	size, err := writePprofFile(doc, outputPath)
	if err != nil {
		return nil, err
	}

	resultText := fmt.Sprintf("Exported pprof profile (%s) to: %s\nInspect it with 'go tool pprof -http=:8081 %s'.",
		humanize.Bytes(uint64(size)), outputPath, outputPath)
	zap.S().Info(resultText)
	return textResult(resultText), nil
}

// graphvizHint is returned when the dot binary is missing.
const graphvizHint = "Graphviz ('dot') was not found in PATH; it is required to render SVG output.\n" +
	"Install it first, for example:\n" +
	"- macOS (Homebrew): brew install graphviz\n" +
	"- Debian/Ubuntu: sudo apt-get update && sudo apt-get install graphviz\n" +
	"- CentOS/Fedora: sudo yum install graphviz or sudo dnf install graphviz\n" +
	"- Windows (Chocolatey): choco install graphviz"

var errGraphvizMissing = errors.New(graphvizHint)

// handleGenerateReactFlamegraph serves "generate_react_flamegraph".
func (h *toolHandlers) handleGenerateReactFlamegraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	profileURI, err := requiredString(args, "profile_uri")
	if err != nil {
		return nil, err
	}
	outputSvgPath, err := requiredString(args, "output_svg_path")
	if err != nil {
		return nil, err
	}

	zap.S().Infof("Handling generate_react_flamegraph: URI=%s, Output=%s", profileURI, outputSvgPath)

	if outputSvgPath, err = absPath(outputSvgPath); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath("dot"); err != nil {
		zap.S().Error(graphvizHint)
		return nil, errGraphvizMissing
	}

	doc, err := loadProfile(ctx, profileURI)
	if err != nil {
		return nil, err
	}
	pprofPath, cleanup, err := writeTempPprof(doc)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmdArgs := []string{"tool", "pprof", "-svg", "-output", outputSvgPath, pprofPath}
	zap.S().Infof("Executing command: go %s", strings.Join(cmdArgs, " "))

	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmdOutput, err := cmd.CombinedOutput()
	if err != nil {
		zap.S().Errorf("Error executing 'go tool pprof': %v\nOutput:\n%s", err, string(cmdOutput))
		return nil, fmt.Errorf("failed to generate flamegraph: %w. Output: %s", err, string(cmdOutput))
	}
	zap.S().Infof("Successfully generated flamegraph: %s", outputSvgPath)
	zap.S().Debugf("pprof output:\n%s", string(cmdOutput))

	resultText := fmt.Sprintf("Flame graph generated and saved to: %s", outputSvgPath)
	svgBytes, readErr := os.ReadFile(outputSvgPath)
	if readErr != nil {
		zap.S().Warnf("Generated SVG '%s' but failed to read it back: %v", outputSvgPath, readErr)
		return textResult(resultText), nil
	}
	return textResult(resultText, string(svgBytes)), nil
}
