package model

// NamedSeries is one labelled line of a comparative chart.
type NamedSeries struct {
	Label     string            `json:"label"`
	X         []float64         `json:"x"`
	Y         []float64         `json:"y"`
	StyleHint map[string]string `json:"style_hint,omitempty"`
}

// Marker is a vertical reference line, e.g. a hazard changepoint.
type Marker struct {
	X     float64 `json:"x"`
	Label string  `json:"label,omitempty"`
}

// ComparativeChartSpec is a renderer-agnostic description of several curves.
// Series order is legend/stacking order and is meaningful.
type ComparativeChartSpec struct {
	Title   string        `json:"title,omitempty"`
	Series  []NamedSeries `json:"series"`
	Markers []Marker      `json:"markers,omitempty"`
}
