package analyzer_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

func loadFixture(t *testing.T) *profiler.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "profiler", "testdata", "profile.json"))
	require.NoError(t, err)
	doc, err := profiler.Parse(data)
	require.NoError(t, err)
	return doc
}

func parseDoc(t *testing.T, raw string) *profiler.Document {
	t.Helper()
	doc, err := profiler.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

// encode writes pairs in one of the three container encodings.
func encode(encoding string, pairs [][2]float64) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		switch encoding {
		case "keyed":
			parts = append(parts, fmt.Sprintf("[%d, %g]", int(p[0]), p[1]))
		case "entries":
			parts = append(parts, fmt.Sprintf(`{"id": %d, "value": %g}`, int(p[0]), p[1]))
		case "record":
			parts = append(parts, fmt.Sprintf(`"%d": %g`, int(p[0]), p[1]))
		}
	}
	if encoding == "record" {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// encodeSnapshots writes id -> displayName snapshot nodes. An empty name is
// written as null.
func encodeSnapshots(encoding string, ids []int, names map[int]string, children map[int][]int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		name := "null"
		if n := names[id]; n != "" {
			name = fmt.Sprintf("%q", n)
		}
		kids := "[]"
		if c := children[id]; len(c) > 0 {
			strs := make([]string, len(c))
			for i, k := range c {
				strs[i] = fmt.Sprint(k)
			}
			kids = "[" + strings.Join(strs, ", ") + "]"
		}
		node := fmt.Sprintf(`{"id": %d, "displayName": %s, "children": %s}`, id, name, kids)
		switch encoding {
		case "keyed":
			parts = append(parts, fmt.Sprintf("[%d, %s]", id, node))
		case "entries":
			parts = append(parts, node)
		case "record":
			parts = append(parts, fmt.Sprintf(`"%d": %s`, id, node))
		}
	}
	if encoding == "record" {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var encodings = []string{"keyed", "entries", "record"}

// sampleDocument builds the same two-root capture in the given encoding.
func sampleDocument(t *testing.T, encoding string) *profiler.Document {
	t.Helper()
	names := map[int]string{1: "App", 2: "Header", 3: "List", 4: ""}
	children := map[int][]int{1: {2, 3}, 3: {4}}
	raw := fmt.Sprintf(`{
		"reactVersion": "18.2.0",
		"dataForRoots": [
			{
				"displayName": "App",
				"snapshots": %s,
				"commitData": [
					{"duration": 12, "effectDuration": 1.5, "passiveEffectDuration": 0.5, "timestamp": 100,
					 "fiberActualDurations": %s, "fiberSelfDurations": %s},
					{"duration": 30, "effectDuration": null, "passiveEffectDuration": 2, "timestamp": 200,
					 "fiberActualDurations": %s, "fiberSelfDurations": %s}
				]
			},
			{
				"displayName": "Modal",
				"snapshots": %s,
				"commitData": [
					{"duration": 6, "effectDuration": 0.25, "timestamp": 300,
					 "fiberActualDurations": %s, "fiberSelfDurations": %s}
				]
			}
		]
	}`,
		encodeSnapshots(encoding, []int{1, 2, 3, 4}, names, children),
		encode(encoding, [][2]float64{{1, 12}, {2, 3}, {3, 8}, {4, 5}}),
		encode(encoding, [][2]float64{{1, 1}, {2, 3}, {3, 3}, {4, 5}}),
		encode(encoding, [][2]float64{{1, 30}, {3, 25}, {4, 20}, {99, 4}}),
		encode(encoding, [][2]float64{{1, 5}, {3, 5}, {4, 20}, {99, 4}}),
		encodeSnapshots(encoding, []int{10, 11}, map[int]string{10: "Modal", 11: "Header"}, map[int][]int{10: {11}}),
		encode(encoding, [][2]float64{{10, 6}, {11, 4}}),
		encode(encoding, [][2]float64{{10, 2}, {11, 4}}),
	)
	return parseDoc(t, raw)
}
