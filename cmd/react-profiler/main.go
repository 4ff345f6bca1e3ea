package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/chart"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/config"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/logging"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/source"
)

type options struct {
	configPath string
	logLevel   string

	cfg        *config.Config
	undoLogger func()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "react-profiler",
		Short:         "Analyze React DevTools profiler exports",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			undo, err := logging.Setup(cfg.LogLevel)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.undoLogger = undo
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.undoLogger != nil {
				opts.undoLogger()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newChartsCmd(opts),
		newExportPprofCmd(opts),
	)
	return rootCmd
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		view   string
		format string
		topN   int
	)
	cmd := &cobra.Command{
		Use:   "analyze <profile-uri>",
		Short: "Print an analysis view of a profiler export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := source.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := analyzer.Analyze(cmd.Context(), doc, opts.cfg.ThresholdSet())
			if err != nil {
				return err
			}
			if topN <= 0 {
				topN = opts.cfg.TopN
			}
			out, err := analyzer.FormatReport(report, view, format, topN)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&view, "view", analyzer.ViewSummary, fmt.Sprintf("view to print %v", analyzer.Views()))
	cmd.Flags().StringVar(&format, "format", analyzer.FormatText, fmt.Sprintf("output format %v", analyzer.Formats()))
	cmd.Flags().IntVar(&topN, "top", 0, "rows in the component tables (defaults to the config's top_n)")
	return cmd
}

func newChartsCmd(opts *options) *cobra.Command {
	var (
		outDir      string
		imageFormat string
	)
	cmd := &cobra.Command{
		Use:   "charts <profile-uri>",
		Short: "Render the commit and phase charts of a profiler export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := source.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			th := opts.cfg.ThresholdSet()
			charts, err := chart.Build(analyzer.CommitSeries(doc), analyzer.PhaseBreakdown(doc, th), th.Render)
			if err != nil {
				return err
			}
			width, height := opts.cfg.ChartSize()
			paths, err := chart.SaveAll(outDir, imageFormat, width, height, charts...)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&imageFormat, "image-format", chart.FormatSVG, "svg, png or pdf")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newExportPprofCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-pprof <profile-uri>",
		Short: "Convert a profiler export into a pprof profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := source.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create '%s': %w", output, err)
			}
			cw := &countingWriter{w: f}
			if err := analyzer.WritePprof(doc, cw); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", output, humanize.Bytes(uint64(cw.n)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "pprof file to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
