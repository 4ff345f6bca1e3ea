package analyzer

import "fmt"

// PerformanceStatus is the traffic-light classification of a duration.
type PerformanceStatus string

const (
	StatusGood     PerformanceStatus = "good"
	StatusWarning  PerformanceStatus = "warning"
	StatusCritical PerformanceStatus = "critical"
)

// Color returns the hex color used for the status in charts.
func (s PerformanceStatus) Color() string {
	switch s {
	case StatusGood:
		return "#22c55e"
	case StatusWarning:
		return "#eab308"
	case StatusCritical:
		return "#ef4444"
	default:
		return "#6b7280"
	}
}

// Icon returns a short marker for text reports.
func (s PerformanceStatus) Icon() string {
	switch s {
	case StatusGood:
		return "✅"
	case StatusWarning:
		return "⚠️"
	case StatusCritical:
		return "🚨"
	default:
		return "❓"
	}
}

// Thresholds are three ascending bounds in milliseconds. Critical is only a
// reference value for display; Classify never compares against it.
type Thresholds struct {
	Good     float64 `json:"good" yaml:"good"`
	Warning  float64 `json:"warning" yaml:"warning"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// Validate checks that the bounds are ascending and non-negative.
func (t Thresholds) Validate() error {
	if t.Good < 0 {
		return fmt.Errorf("good bound %v is negative", t.Good)
	}
	if t.Warning < t.Good {
		return fmt.Errorf("warning bound %v is below good bound %v", t.Warning, t.Good)
	}
	if t.Critical < t.Warning {
		return fmt.Errorf("critical bound %v is below warning bound %v", t.Critical, t.Warning)
	}
	return nil
}

// Classify maps value onto a status: at most Good is good, at most Warning is
// warning, anything above is critical.
func Classify(value float64, t Thresholds) PerformanceStatus {
	if value <= t.Good {
		return StatusGood
	}
	if value <= t.Warning {
		return StatusWarning
	}
	return StatusCritical
}

// RenderTimeThresholds is modeled on the 16ms frame budget at 60fps.
func RenderTimeThresholds() Thresholds {
	return Thresholds{Good: 16, Warning: 50, Critical: 100}
}

// CommitPhaseThresholds apply to the render phase of a single commit.
func CommitPhaseThresholds() Thresholds {
	return Thresholds{Good: 10, Warning: 25, Critical: 50}
}

// EffectDurationThresholds apply to layout plus passive effect time.
func EffectDurationThresholds() Thresholds {
	return Thresholds{Good: 5, Warning: 15, Critical: 30}
}

// ThresholdSet bundles the three presets so callers can substitute any of them.
type ThresholdSet struct {
	Render      Thresholds `json:"render" yaml:"render"`
	CommitPhase Thresholds `json:"commitPhase" yaml:"commit_phase"`
	Effect      Thresholds `json:"effect" yaml:"effect"`
}

// DefaultThresholdSet returns a fresh copy of the built-in presets.
func DefaultThresholdSet() ThresholdSet {
	return ThresholdSet{
		Render:      RenderTimeThresholds(),
		CommitPhase: CommitPhaseThresholds(),
		Effect:      EffectDurationThresholds(),
	}
}

// Validate checks every preset in the set.
func (s ThresholdSet) Validate() error {
	if err := s.Render.Validate(); err != nil {
		return fmt.Errorf("render thresholds: %w", err)
	}
	if err := s.CommitPhase.Validate(); err != nil {
		return fmt.Errorf("commit phase thresholds: %w", err)
	}
	if err := s.Effect.Validate(); err != nil {
		return fmt.Errorf("effect thresholds: %w", err)
	}
	return nil
}
