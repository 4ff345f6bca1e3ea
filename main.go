package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/config"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/logging"
)

const (
	serverName    = "ReactProfilerAnalyzer"
	serverVersion = "0.1.0"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:           "react-profiler-analyzer-mcp",
		Short:         "Serve React DevTools profiler analysis as MCP tools over stdio",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	undo, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer undo()

	h := newToolHandlers(cfg)
	h.sessions.setupSignalHandler()

	zap.S().Info("Starting ReactProfilerAnalyzer MCP server via stdio...")
	if err := server.ServeStdio(newServer(h)); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newServer registers every tool on a fresh MCP server.
func newServer(h *toolHandlers) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
		server.WithRecovery(),
	)

	analyzeTool := mcp.NewTool("analyze_react_profile",
		mcp.WithDescription("Analyze a React DevTools Profiler export: commit statistics, slowest components, commit series, component tree, render phases or flame graph."),
		mcp.WithString("profile_uri",
			mcp.Description("URI of the profiler export JSON ('file://', 'http://', 'https://' or a local path)."),
			mcp.Required(),
		),
		mcp.WithString("view",
			mcp.Description("Which part of the analysis to return."),
			mcp.DefaultString(analyzer.ViewSummary),
			mcp.Enum(analyzer.Views()...),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum number of rows in the slowest component and tree tables (text and markdown only)."),
			mcp.DefaultNumber(float64(analyzer.MaxSlowestComponents)),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format of the analysis."),
			mcp.DefaultString(analyzer.FormatText),
			mcp.Enum(analyzer.Formats()...),
		),
	)

	chartsTool := mcp.NewTool("render_react_charts",
		mcp.WithDescription("Render the commit render-time chart and the render-phase chart of a profiler export into a directory."),
		mcp.WithString("profile_uri",
			mcp.Description("URI of the profiler export JSON ('file://', 'http://', 'https://' or a local path)."),
			mcp.Required(),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory the charts are written to (absolute or relative to the server's working directory)."),
			mcp.Required(),
		),
		mcp.WithString("image_format",
			mcp.Description("Image format of the charts."),
			mcp.DefaultString("svg"),
			mcp.Enum("svg", "png", "pdf"),
		),
	)

	exportTool := mcp.NewTool("export_react_pprof",
		mcp.WithDescription("Convert a profiler export into a gzipped pprof profile readable by 'go tool pprof'."),
		mcp.WithString("profile_uri",
			mcp.Description("URI of the profiler export JSON ('file://', 'http://', 'https://' or a local path)."),
			mcp.Required(),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to save the pprof profile (absolute or relative to the server's working directory)."),
			mcp.Required(),
		),
	)

	flamegraphTool := mcp.NewTool("generate_react_flamegraph",
		mcp.WithDescription("Generate an SVG call graph of a profiler export with 'go tool pprof'. Requires Graphviz."),
		mcp.WithString("profile_uri",
			mcp.Description("URI of the profiler export JSON ('file://', 'http://', 'https://' or a local path)."),
			mcp.Required(),
		),
		mcp.WithString("output_svg_path",
			mcp.Description("Where to save the SVG (absolute or relative to the server's working directory)."),
			mcp.Required(),
		),
	)

	openInteractiveTool := mcp.NewTool("open_interactive_pprof",
		mcp.WithDescription("Start the 'go tool pprof' web UI for a profiler export in the background. Returns the PID needed to stop it later."),
		mcp.WithString("profile_uri",
			mcp.Description("URI of the profiler export JSON ('file://', 'http://', 'https://' or a local path)."),
			mcp.Required(),
		),
		mcp.WithString("http_address",
			mcp.Description("Listen address of the pprof web UI, e.g. ':8081'. Defaults to ':8081'."),
		),
	)

	disconnectTool := mcp.NewTool("disconnect_pprof_session",
		mcp.WithDescription("Stop a background pprof process started by 'open_interactive_pprof'."),
		mcp.WithNumber("pid",
			mcp.Description("PID returned by 'open_interactive_pprof'."),
			mcp.Required(),
		),
	)

	mcpServer.AddTool(analyzeTool, h.handleAnalyzeReactProfile)
	mcpServer.AddTool(chartsTool, h.handleRenderReactCharts)
	mcpServer.AddTool(exportTool, h.handleExportReactPprof)
	mcpServer.AddTool(flamegraphTool, h.handleGenerateReactFlamegraph)
	mcpServer.AddTool(openInteractiveTool, h.handleOpenInteractivePprof)
	mcpServer.AddTool(disconnectTool, h.handleDisconnectPprofSession)
	return mcpServer
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
