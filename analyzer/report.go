package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// Report views.
const (
	ViewSummary    = "summary"
	ViewCommits    = "commits"
	ViewTree       = "tree"
	ViewPhases     = "phases"
	ViewFlameGraph = "flamegraph"
	ViewAll        = "all"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

var (
	ErrUnsupportedView   = errors.New("unsupported view")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Views lists the accepted view names.
func Views() []string {
	return []string{ViewSummary, ViewCommits, ViewTree, ViewPhases, ViewFlameGraph, ViewAll}
}

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatText, FormatMarkdown, FormatJSON}
}

const separator = "--------------------------------------------------\n"

// Analyze computes every view of doc. The views share no state, so they are
// built concurrently.
func Analyze(ctx context.Context, doc *profiler.Document, th ThresholdSet) (*Report, error) {
	if doc == nil {
		return nil, errors.New("nil profiler document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Report{ReactVersion: doc.ReactVersion}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Metrics = CalculatePerformanceMetrics(doc, th)
		return ctx.Err()
	})
	g.Go(func() error {
		r.Commits = CommitSeries(doc)
		return ctx.Err()
	})
	g.Go(func() error {
		r.Tree = ComponentTree(doc, th)
		return ctx.Err()
	})
	g.Go(func() error {
		r.Phases = PhaseBreakdown(doc, th)
		return ctx.Err()
	})
	g.Go(func() error {
		r.FlameGraph = BuildFlameGraphTree(doc, th)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	zap.S().Debugw("Analyzed profiler document",
		"roots", len(doc.DataForRoots),
		"commits", r.Metrics.TotalRenders,
		"components", r.Metrics.ComponentsCount,
	)
	return r, nil
}

// FormatReport renders one view of r. topN bounds the rows of the summary and
// tree tables in text and markdown output; json output is never truncated.
func FormatReport(r *Report, view, format string, topN int) (string, error) {
	if r == nil {
		return "", errors.New("nil report")
	}
	if topN <= 0 {
		topN = MaxSlowestComponents
	}
	zap.S().Debugf("Formatting report (View: %s, Top %d, Format: %s)", view, topN, format)

	switch format {
	case FormatText, FormatMarkdown: // both use the same layout
		var b strings.Builder
		if format == FormatMarkdown {
			b.WriteString("```text\n") // text block keeps column alignment
		}
		if err := writeView(&b, r, view, topN); err != nil {
			return "", err
		}
		if format == FormatMarkdown {
			b.WriteString("```\n")
		}
		return b.String(), nil

	case FormatJSON:
		var payload any
		switch view {
		case ViewSummary:
			payload = r.Metrics
		case ViewCommits:
			payload = r.Commits
		case ViewTree:
			payload = r.Tree
		case ViewPhases:
			payload = r.Phases
		case ViewFlameGraph:
			payload = r.FlameGraph
		case ViewAll:
			payload = r
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedView, view)
		}
		jsonBytes, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			zap.S().Errorf("Error marshaling %s view to JSON: %v", view, err)
			errorResult := ErrorResult{Error: fmt.Sprintf("Failed to marshal result to JSON: %v", err), View: view}
			errJSONBytes, _ := json.Marshal(errorResult)
			return string(errJSONBytes), nil // reported in-band, not as an analysis error
		}
		return string(jsonBytes), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeView(b *strings.Builder, r *Report, view string, topN int) error {
	switch view {
	case ViewSummary:
		writeSummary(b, r, topN)
	case ViewCommits:
		writeCommits(b, r.Commits)
	case ViewTree:
		writeTree(b, r.Tree, topN)
	case ViewPhases:
		writePhases(b, r.Phases)
	case ViewFlameGraph:
		writeFlameGraph(b, r.FlameGraph)
	case ViewAll:
		writeSummary(b, r, topN)
		b.WriteString("\n")
		writeCommits(b, r.Commits)
		b.WriteString("\n")
		writeTree(b, r.Tree, topN)
		b.WriteString("\n")
		writePhases(b, r.Phases)
		b.WriteString("\n")
		writeFlameGraph(b, r.FlameGraph)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedView, view)
	}
	return nil
}

func writeSummary(b *strings.Builder, r *Report, topN int) {
	m := r.Metrics
	version := r.ReactVersion
	if version == "" {
		version = "unknown"
	}
	b.WriteString(fmt.Sprintf("React Profiler Analysis (React %s)\n", version))
	b.WriteString(fmt.Sprintf("Total Commits: %s\n", FormatCount(m.TotalRenders)))
	b.WriteString(fmt.Sprintf("Components Tracked: %s\n", FormatCount(m.ComponentsCount)))
	b.WriteString(fmt.Sprintf("Average Render: %s %s\n", FormatMillis(m.AverageRenderTime), formatStatus(m.AverageStatus)))
	b.WriteString(fmt.Sprintf("Max Render: %s %s\n", FormatMillis(m.MaxRenderTime), formatStatus(m.MaxStatus)))
	b.WriteString(fmt.Sprintf("Min Render: %s\n", FormatMillis(m.MinRenderTime)))

	limit := topN
	if limit > len(m.SlowestComponents) {
		limit = len(m.SlowestComponents)
	}
	b.WriteString(fmt.Sprintf("\nSlowest Components (Top %d by Mean Render Time)\n", limit))
	b.WriteString(separator)
	b.WriteString(fmt.Sprintf("%-12s %-8s %-12s %s\n", "Avg Render", "Renders", "Status", "Component"))
	b.WriteString(separator)
	for i := 0; i < limit; i++ {
		c := m.SlowestComponents[i]
		b.WriteString(fmt.Sprintf("%-12s %-8d %-12s %s\n", FormatMillis(c.RenderTime), c.RenderCount, c.Status, c.Name))
	}
}

func writeCommits(b *strings.Builder, points []CommitPoint) {
	b.WriteString(fmt.Sprintf("Commit Series (%s commits)\n", FormatCount(len(points))))
	b.WriteString(separator)
	b.WriteString(fmt.Sprintf("%-16s %-5s %-10s %-10s %-10s %-10s %s\n",
		"Root", "#", "Render", "Effect", "Passive", "Fibers", "Timestamp"))
	b.WriteString(separator)
	for _, p := range points {
		b.WriteString(fmt.Sprintf("%-16s %-5d %-10s %-10s %-10s %-10d %.2f\n",
			p.Root, p.CommitIndex,
			FormatMillis(p.RenderDuration), FormatMillis(p.EffectDuration), FormatMillis(p.PassiveEffectDuration),
			p.ComponentsCount, p.Timestamp))
	}
}

func writeTree(b *strings.Builder, roots []RootNode, topN int) {
	b.WriteString("Component Tree (Last Commit)\n")
	for _, root := range roots {
		b.WriteString(separator)
		b.WriteString(fmt.Sprintf("Root: %s (total %s, %d components)\n", root.Name, FormatMillis(root.Value), len(root.Children)))
		b.WriteString(separator)

		// Heaviest first for display; the view itself keeps snapshot order.
		children := make([]ComponentNode, len(root.Children))
		copy(children, root.Children)
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].ActualDuration > children[j].ActualDuration
		})
		limit := topN
		if limit > len(children) {
			limit = len(children)
		}
		for i := 0; i < limit; i++ {
			c := children[i]
			b.WriteString(fmt.Sprintf("%-12s %-12s %-12s %s\n",
				FormatMillis(c.ActualDuration), FormatMillis(c.SelfDuration), c.Status, c.Name))
		}
	}
}

func writePhases(b *strings.Builder, points []PhasePoint) {
	b.WriteString("Render Phases\n")
	b.WriteString(separator)
	b.WriteString(fmt.Sprintf("%-16s %-12s %-10s %-10s %-10s %-10s %-10s %s\n",
		"Root", "Commit", "Render", "Effect", "Passive", "Total", "Render?", "Effects?"))
	b.WriteString(separator)
	for _, p := range points {
		b.WriteString(fmt.Sprintf("%-16s %-12s %-10s %-10s %-10s %-10s %-10s %s\n",
			p.Root, p.Label, FormatMillis(p.Render), FormatMillis(p.Effect), FormatMillis(p.PassiveEffect),
			FormatMillis(p.Total), p.RenderStatus, p.EffectStatus))
	}
}

func writeFlameGraph(b *strings.Builder, root *FlameGraphNode) {
	b.WriteString("Flame Graph (Last Commit, Inclusive Time)\n")
	b.WriteString(separator)
	if root == nil {
		return
	}
	var walk func(n *FlameGraphNode, depth int)
	walk = func(n *FlameGraphNode, depth int) {
		b.WriteString(fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), n.Name, FormatMillis(n.Value)))
		if n.SelfValue > 0 {
			b.WriteString(fmt.Sprintf(" (self %s)", FormatMillis(n.SelfValue)))
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}
