package analyzer

import (
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// MaxSlowestComponents bounds PerformanceMetrics.SlowestComponents.
const MaxSlowestComponents = 10

// CalculatePerformanceMetrics aggregates commit durations across every root
// and ranks components by mean render time.
//
// Fibers are merged by resolved display name, so remounted components and
// same-named components in other roots share one entry. A fiber missing from
// its root's snapshots still counts through its commit but is left out of
// the per-component ranking.
func CalculatePerformanceMetrics(doc *profiler.Document, th ThresholdSet) PerformanceMetrics {
	var renderTimes []float64
	byName := make(map[string]*componentStat)
	var order []*componentStat // first-encountered order

	if doc != nil {
		for _, root := range doc.DataForRoots {
			for _, commit := range root.CommitData {
				renderTimes = append(renderTimes, commit.Duration)

				commit.FiberActualDurations.ForEach(func(duration float64, fiberID int) {
					name, ok := root.ResolveName(fiberID)
					if !ok {
						return
					}
					stat, ok := byName[name]
					if !ok {
						stat = &componentStat{Name: name}
						byName[name] = stat
						order = append(order, stat)
					}
					stat.add(duration)
				})
			}
		}
	}

	components := make([]ComponentPerformance, 0, len(order))
	for _, stat := range order {
		components = append(components, ComponentPerformance{
			Name:        stat.Name,
			RenderTime:  stat.Mean,
			RenderCount: stat.Count,
			Status:      Classify(stat.Mean, th.Render),
		})
	}
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].RenderTime > components[j].RenderTime
	})
	if len(components) > MaxSlowestComponents {
		components = components[:MaxSlowestComponents]
	}

	m := PerformanceMetrics{
		TotalRenders:      len(renderTimes),
		ComponentsCount:   len(order),
		SlowestComponents: components,
	}
	if len(renderTimes) > 0 {
		m.AverageRenderTime = stats.Mean(renderTimes)
		m.MinRenderTime, m.MaxRenderTime = stats.Bounds(renderTimes)
	}
	m.AverageStatus = Classify(m.AverageRenderTime, th.Render)
	m.MaxStatus = Classify(m.MaxRenderTime, th.Render)
	return m
}
