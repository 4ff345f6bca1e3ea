// Package analyzer derives performance views from a decoded React profiler
// export:
//   - metrics.go: commit statistics and the slowest components;
//   - series.go: the per-commit series and the render phase breakdown;
//   - tree.go: the component tree of each root's last commit;
//   - flamegraph.go and pprof.go: hierarchical and pprof exports.
//
// Report assembly and text/markdown/json output live in report.go. Every view
// is a pure function of the document and a ThresholdSet.
package analyzer
