package model

import "sort"

// EventCount is one row of the event table behind a non-parametric curve.
type EventCount struct {
	Time     float64 `json:"time"`
	AtRisk   int     `json:"at_risk"`
	Observed int     `json:"observed"`
	Censored int     `json:"censored"`
}

// SurvivalCurve is a Kaplan-Meier estimate for a single group.
// Timeline is strictly increasing and starts at 0; SurvivalProb is
// non-increasing and lies in [0, 1].
type SurvivalCurve struct {
	Group        string       `json:"group"`
	Timeline     []float64    `json:"timeline"`
	SurvivalProb []float64    `json:"survival_prob"`
	Table        []EventCount `json:"event_table"`
}

// At evaluates the right-continuous step function at t.
func (c SurvivalCurve) At(t float64) float64 {
	if i := stepIndex(c.Timeline, t); i >= 0 {
		return c.SurvivalProb[i]
	}
	return 1
}

// Median returns the first time the survival estimate drops to 0.5 or below.
// ok is false when the curve never gets there.
func (c SurvivalCurve) Median() (t float64, ok bool) {
	for i, s := range c.SurvivalProb {
		if s <= 0.5 {
			return c.Timeline[i], true
		}
	}
	return 0, false
}

// CumulativeHazardCurve is a Nelson-Aalen estimate for a single group.
// CumulativeHazard is non-negative, non-decreasing and starts at 0.
type CumulativeHazardCurve struct {
	Group            string       `json:"group"`
	Timeline         []float64    `json:"timeline"`
	CumulativeHazard []float64    `json:"cumulative_hazard"`
	Table            []EventCount `json:"event_table"`
}

// At evaluates the right-continuous step function at t.
func (c CumulativeHazardCurve) At(t float64) float64 {
	if i := stepIndex(c.Timeline, t); i >= 0 {
		return c.CumulativeHazard[i]
	}
	return 0
}

// stepIndex returns the index of the last timeline point <= t, or -1.
func stepIndex(timeline []float64, t float64) int {
	return sort.Search(len(timeline), func(i int) bool { return timeline[i] > t }) - 1
}

// ModelKind names a closed-form curve family.
type ModelKind string

// Supported parametric families.
const (
	Weibull               ModelKind = "weibull"
	PiecewiseLinearHazard ModelKind = "piecewise_linear_hazard"
	Exponential           ModelKind = "exponential"
	Identity              ModelKind = "identity"
)

// Segment is one piece of a piecewise-linear hazard, covering
// [Breakpoint, next Breakpoint) with y = Intercept + Slope*(x-Breakpoint).
type Segment struct {
	Breakpoint float64 `json:"breakpoint"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
}

// Point is one evaluated (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParametricCurve is a closed-form curve evaluated over a caller-supplied domain.
type ParametricCurve struct {
	Group      string             `json:"group"`
	Kind       ModelKind          `json:"model_kind"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Segments   []Segment          `json:"segments,omitempty"`
	Points     []Point            `json:"evaluated_points"`
}
