package analyzer

// --- JSON output structures ---

// ErrorResult carries an error message in json output.
type ErrorResult struct {
	Error string `json:"error"`
	View  string `json:"view,omitempty"`
}

// ComponentPerformance is the mean render time of every fiber sharing a
// display name.
type ComponentPerformance struct {
	Name        string            `json:"name"`
	RenderTime  float64           `json:"renderTime"` // mean, ms
	RenderCount int               `json:"renderCount"`
	Status      PerformanceStatus `json:"status"`
}

// PerformanceMetrics summarizes every commit of every root.
type PerformanceMetrics struct {
	AverageRenderTime float64                `json:"averageRenderTime"`
	MaxRenderTime     float64                `json:"maxRenderTime"`
	MinRenderTime     float64                `json:"minRenderTime"`
	TotalRenders      int                    `json:"totalRenders"`
	ComponentsCount   int                    `json:"componentsCount"`
	SlowestComponents []ComponentPerformance `json:"slowestComponents"`

	// Render-time classification of the average and maximum commit.
	AverageStatus PerformanceStatus `json:"averageStatus"`
	MaxStatus     PerformanceStatus `json:"maxStatus"`
}

// CommitPoint is one commit in the render-time series.
type CommitPoint struct {
	Root                  string  `json:"root"`
	CommitIndex           int     `json:"commitIndex"` // 1-based within Root
	RenderDuration        float64 `json:"renderDuration"`
	EffectDuration        float64 `json:"effectDuration"`
	PassiveEffectDuration float64 `json:"passiveEffectDuration"`
	Timestamp             float64 `json:"timestamp"`
	ComponentsCount       int     `json:"componentsCount"`
}

// ComponentNode is one component of a root's last commit.
type ComponentNode struct {
	Name           string            `json:"name"`
	ActualDuration float64           `json:"actualDuration"`
	SelfDuration   float64           `json:"selfDuration"`
	Status         PerformanceStatus `json:"status"`
}

// RootNode groups the components of one root. Value is the sum of the
// children's actual durations and serves as the area weight of a treemap.
type RootNode struct {
	Name     string          `json:"name"`
	Value    float64         `json:"value"`
	Children []ComponentNode `json:"children"`
}

// PhasePoint splits one commit into render, layout effect and passive effect
// time.
type PhasePoint struct {
	Root          string  `json:"root"`
	Label         string  `json:"label"` // "Commit N", numbered within Root
	Render        float64 `json:"render"`
	Effect        float64 `json:"effect"`
	PassiveEffect float64 `json:"passiveEffect"`
	Total         float64 `json:"total"`

	RenderStatus PerformanceStatus `json:"renderStatus"`
	EffectStatus PerformanceStatus `json:"effectStatus"`
}

// FlameGraphNode is a node of a d3-flame-graph style hierarchy.
type FlameGraphNode struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`               // inclusive ms
	SelfValue float64           `json:"selfValue,omitempty"` // exclusive ms
	Status    PerformanceStatus `json:"status,omitempty"`
	Children  []*FlameGraphNode `json:"children,omitempty"`
}

// Report bundles every view computed from one document.
type Report struct {
	ReactVersion string             `json:"reactVersion"`
	Metrics      PerformanceMetrics `json:"metrics"`
	Commits      []CommitPoint      `json:"commits"`
	Tree         []RootNode         `json:"tree"`
	Phases       []PhasePoint       `json:"phases"`
	FlameGraph   *FlameGraphNode    `json:"flameGraph,omitempty"`
}

// --- internal helpers ---

// componentStat accumulates render time under a resolved display name.
type componentStat struct {
	Name  string
	Mean  float64 // running mean, stays finite where a plain sum would overflow
	Count int
}

func (s *componentStat) add(duration float64) {
	s.Count++
	s.Mean += (duration - s.Mean) / float64(s.Count)
}
