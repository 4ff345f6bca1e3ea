package analyzer

import (
	"fmt"
	"io"
	"math"

	"github.com/google/pprof/profile"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

const (
	// maxStackDepth bounds ancestry walks over malformed snapshots.
	maxStackDepth = 1024

	pprofSelfSampleType = "self"
)

// ToPprof converts every commit into pprof samples so that React captures can
// be explored with `go tool pprof`. Each fiber with a known snapshot becomes
// one sample whose stack is its snapshot ancestry, ending in a synthetic
// "[<root name>]" frame. Values are renders/count, self/nanoseconds and
// actual/nanoseconds; self time is the default.
func ToPprof(doc *profiler.Document) (*profile.Profile, error) {
	b := newPprofBuilder()
	if doc != nil {
		if doc.ReactVersion != "" {
			b.p.Comments = append(b.p.Comments, "react "+doc.ReactVersion)
		}
		for i, root := range doc.DataForRoots {
			b.addRoot(i, root)
		}
	}

	if err := b.p.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid pprof profile: %w", err)
	}
	// Compactify profile: identical stacks from different commits collapse.
	merged, err := profile.Merge([]*profile.Profile{b.p})
	if err != nil {
		return nil, fmt.Errorf("failed to merge pprof samples: %w", err)
	}
	return merged, nil
}

// WritePprof writes the gzip-compressed pprof encoding of doc to w.
func WritePprof(doc *profiler.Document, w io.Writer) error {
	p, err := ToPprof(doc)
	if err != nil {
		return err
	}
	if err := p.Write(w); err != nil {
		return fmt.Errorf("failed to write pprof profile: %w", err)
	}
	return nil
}

type pprofBuilder struct {
	p         *profile.Profile
	locations map[string]*profile.Location // by function name
}

func newPprofBuilder() *pprofBuilder {
	return &pprofBuilder{
		p: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "renders", Unit: "count"},
				{Type: pprofSelfSampleType, Unit: "nanoseconds"},
				{Type: "actual", Unit: "nanoseconds"},
			},
			DefaultSampleType: pprofSelfSampleType,
			PeriodType:        &profile.ValueType{Type: "commit", Unit: "count"},
			Period:            1,
		},
		locations: make(map[string]*profile.Location),
	}
}

// location returns the single location of the function called name.
func (b *pprofBuilder) location(name string) *profile.Location {
	if loc, ok := b.locations[name]; ok {
		return loc
	}
	fn := &profile.Function{
		ID:         uint64(len(b.p.Function) + 1),
		Name:       name,
		SystemName: name,
	}
	b.p.Function = append(b.p.Function, fn)

	loc := &profile.Location{
		ID:   uint64(len(b.p.Location) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	b.p.Location = append(b.p.Location, loc)
	b.locations[name] = loc
	return loc
}

func (b *pprofBuilder) addRoot(index int, root profiler.Root) {
	rootName := root.DisplayName
	if rootName == "" {
		rootName = fmt.Sprintf("Root_%d", index+1)
	}
	rootFrame := "[" + rootName + "]"

	parents := make(map[int]int)
	root.Snapshots.ForEach(func(node profiler.SnapshotNode, id int) {
		for _, c := range node.Children {
			if _, seen := parents[c]; !seen {
				parents[c] = id
			}
		}
	})

	for _, commit := range root.CommitData {
		commit.FiberActualDurations.ForEach(func(actual float64, fiberID int) {
			if _, ok := root.Snapshots.Get(fiberID); !ok {
				return
			}
			self, _ := commit.FiberSelfDurations.Get(fiberID)

			var stack []*profile.Location
			id := fiberID
			for depth := 0; depth < maxStackDepth; depth++ {
				name, ok := root.ResolveName(id)
				if !ok {
					break
				}
				stack = append(stack, b.location(name))
				parent, ok := parents[id]
				if !ok {
					break
				}
				id = parent
			}
			stack = append(stack, b.location(rootFrame))

			b.p.Sample = append(b.p.Sample, &profile.Sample{
				Location: stack,
				Value:    []int64{1, millisToNanos(self), millisToNanos(actual)},
				Label:    map[string][]string{"root": {rootName}},
			})
		})
	}
}

func millisToNanos(ms float64) int64 {
	if ms <= 0 || math.IsNaN(ms) {
		return 0
	}
	return int64(math.Round(ms * 1e6))
}
