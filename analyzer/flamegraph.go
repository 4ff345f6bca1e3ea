package analyzer

import (
	"sort"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

// BuildFlameGraphTree converts each root's last commit into a hierarchical
// FlameGraphNode structure following the snapshot children links. The
// returned node is a synthetic "root" holding one child per profiled root.
func BuildFlameGraphTree(doc *profiler.Document, th ThresholdSet) *FlameGraphNode {
	// Name "root" is conventional for d3-flame-graph.
	top := &FlameGraphNode{Name: "root"}
	if doc == nil {
		return top
	}

	for _, root := range doc.DataForRoots {
		last, ok := root.LastCommit()
		if !ok {
			continue
		}
		b := &flameBuilder{
			root:    root,
			commit:  last,
			th:      th,
			visited: make(map[int]bool),
		}
		rootNode := &FlameGraphNode{Name: root.DisplayName}
		for _, id := range topLevelFibers(root) {
			if child := b.build(id); child != nil {
				rootNode.Children = append(rootNode.Children, child)
				rootNode.Value += child.Value
			}
		}
		if rootNode.Value > 0 {
			top.Children = append(top.Children, rootNode)
			top.Value += rootNode.Value
		}
	}

	sortChildrenByValue(top)
	return top
}

// topLevelFibers returns the snapshot ids that are nobody's child.
func topLevelFibers(root profiler.Root) []int {
	isChild := make(map[int]bool)
	root.Snapshots.ForEach(func(node profiler.SnapshotNode, _ int) {
		for _, c := range node.Children {
			isChild[c] = true
		}
	})
	var ids []int
	for _, id := range root.Snapshots.Keys() {
		if !isChild[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

type flameBuilder struct {
	root    profiler.Root
	commit  profiler.Commit
	th      ThresholdSet
	visited map[int]bool // guards against cyclic snapshots
}

// build returns the subtree rooted at id, or nil when nothing in it rendered
// during the commit.
func (b *flameBuilder) build(id int) *FlameGraphNode {
	if b.visited[id] {
		return nil
	}
	b.visited[id] = true

	snapshot, ok := b.root.Snapshots.Get(id)
	if !ok {
		return nil
	}
	actual, _ := b.commit.FiberActualDurations.Get(id)
	self, _ := b.commit.FiberSelfDurations.Get(id)

	node := &FlameGraphNode{
		Name:      profiler.ComponentName(snapshot, id),
		SelfValue: self,
	}
	childTotal := 0.0
	for _, childID := range snapshot.Children {
		if child := b.build(childID); child != nil {
			node.Children = append(node.Children, child)
			childTotal += child.Value
		}
	}

	// A child can re-render while its parent bails out, so the parent's
	// actual duration may undercount its rendered subtree.
	node.Value = actual
	if self+childTotal > node.Value {
		node.Value = self + childTotal
	}
	if node.Value <= 0 {
		return nil
	}
	node.Status = Classify(actual, b.th.Render)
	return node
}

// sortChildrenByValue recursively sorts the children of a FlameGraphNode by value (descending).
func sortChildrenByValue(node *FlameGraphNode) {
	if node == nil || len(node.Children) == 0 {
		return
	}
	sort.SliceStable(node.Children, func(i, j int) bool {
		return node.Children[i].Value > node.Children[j].Value
	})
	for _, child := range node.Children {
		sortChildrenByValue(child)
	}
}
