package analyzer

import (
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// ComponentTree weights every snapshot component by its durations in the
// root's last commit. Earlier commits are ignored.
func ComponentTree(doc *profiler.Document, th ThresholdSet) []RootNode {
	roots := []RootNode{}
	if doc == nil {
		return roots
	}
	for _, root := range doc.DataForRoots {
		node := RootNode{
			Name:     root.DisplayName,
			Children: []ComponentNode{},
		}

		if last, ok := root.LastCommit(); ok {
			root.Snapshots.ForEach(func(snapshot profiler.SnapshotNode, id int) {
				actual, _ := last.FiberActualDurations.Get(id)
				self, _ := last.FiberSelfDurations.Get(id)
				node.Children = append(node.Children, ComponentNode{
					Name:           profiler.ComponentName(snapshot, id),
					ActualDuration: actual,
					SelfDuration:   self,
					Status:         Classify(actual, th.Render),
				})
				node.Value += actual
			})
		}

		roots = append(roots, node)
	}
	return roots
}
