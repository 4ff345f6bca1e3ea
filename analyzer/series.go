package analyzer

import (
	"strconv"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// CommitSeries emits one point per commit. Roots are concatenated in order
// and each restarts its own 1-based CommitIndex.
func CommitSeries(doc *profiler.Document) []CommitPoint {
	points := []CommitPoint{}
	if doc == nil {
		return points
	}
	for _, root := range doc.DataForRoots {
		for i, commit := range root.CommitData {
			points = append(points, CommitPoint{
				Root:                  root.DisplayName,
				CommitIndex:           i + 1,
				RenderDuration:        commit.Duration,
				EffectDuration:        commit.Effect(),
				PassiveEffectDuration: commit.PassiveEffect(),
				Timestamp:             commit.Timestamp,
				ComponentsCount:       commit.FiberActualDurations.Len(),
			})
		}
	}
	return points
}

// PhaseBreakdown splits every commit into its render, effect and passive
// effect phases, numbered per root like CommitSeries.
func PhaseBreakdown(doc *profiler.Document, th ThresholdSet) []PhasePoint {
	points := []PhasePoint{}
	if doc == nil {
		return points
	}
	for _, root := range doc.DataForRoots {
		for i, commit := range root.CommitData {
			render := commit.Duration
			effect := commit.Effect()
			passive := commit.PassiveEffect()
			points = append(points, PhasePoint{
				Root:          root.DisplayName,
				Label:         "Commit " + strconv.Itoa(i+1),
				Render:        render,
				Effect:        effect,
				PassiveEffect: passive,
				Total:         render + effect + passive,
				RenderStatus:  Classify(render, th.CommitPhase),
				EffectStatus:  Classify(effect+passive, th.Effect),
			})
		}
	}
	return points
}
