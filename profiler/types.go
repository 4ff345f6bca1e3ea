// Package profiler decodes React DevTools Profiler exports into typed,
// encoding-independent values.
package profiler

import "strconv"

// Document is a React DevTools Profiler export. Only the fields used for
// analysis are decoded; everything else (version, root ids, base durations,
// priority levels, HOC names, timeline data) is skipped, so a malformed value
// there never rejects the capture.
type Document struct {
	ReactVersion string `json:"reactVersion"`
	DataForRoots []Root `json:"dataForRoots"`
}

// Root is one profiled component tree.
type Root struct {
	DisplayName string   `json:"displayName"`
	CommitData  []Commit `json:"commitData"`

	// Snapshots describes the static shape of the tree, keyed by fiber id.
	// Fiber ids are unique within a root only.
	Snapshots Container[SnapshotNode] `json:"snapshots"`
}

// Commit is one completed render pass. Durations are in milliseconds.
type Commit struct {
	Duration              float64  `json:"duration"`
	EffectDuration        *float64 `json:"effectDuration"`
	PassiveEffectDuration *float64 `json:"passiveEffectDuration"`

	// FiberActualDurations holds inclusive render time per fiber.
	FiberActualDurations Container[float64] `json:"fiberActualDurations"`
	// FiberSelfDurations holds exclusive render time per fiber.
	FiberSelfDurations Container[float64] `json:"fiberSelfDurations"`

	Timestamp float64 `json:"timestamp"`
}

// Effect returns the layout effect duration, 0 when unreported.
func (c Commit) Effect() float64 {
	if c.EffectDuration == nil {
		return 0
	}
	return *c.EffectDuration
}

// PassiveEffect returns the passive effect duration, 0 when unreported.
func (c Commit) PassiveEffect() float64 {
	if c.PassiveEffectDuration == nil {
		return 0
	}
	return *c.PassiveEffectDuration
}

// SnapshotNode is one component in a root's tree snapshot.
type SnapshotNode struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	Children    []int  `json:"children"`
}

// LastCommit returns the most recent commit of the root.
func (r Root) LastCommit() (Commit, bool) {
	if len(r.CommitData) == 0 {
		return Commit{}, false
	}
	return r.CommitData[len(r.CommitData)-1], true
}

// ResolveName looks id up in the root's snapshots. It reports false when the
// fiber is unknown to this root.
func (r Root) ResolveName(id int) (string, bool) {
	node, ok := r.Snapshots.Get(id)
	if !ok {
		return "", false
	}
	return ComponentName(node, id), true
}

// ComponentName is the display name of node, or Component_<id> when the
// snapshot carries none.
func ComponentName(node SnapshotNode, id int) string {
	if node.DisplayName != "" {
		return node.DisplayName
	}
	return "Component_" + strconv.Itoa(id)
}
