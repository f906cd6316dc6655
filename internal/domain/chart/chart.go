// Package chart merges heterogeneous curves into one comparative chart
// description for an external renderer.
package chart

import (
	"fmt"
	"maps"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
)

// Curve is anything that can project itself onto a labelled (x, y) series.
// model.SurvivalCurve, model.CumulativeHazardCurve and model.ParametricCurve
// all satisfy it.
type Curve interface {
	Project() model.NamedSeries
}

// Option applies a configuration option to a chart build.
type Option func(*builder)

type builder struct {
	title   string
	markers []model.Marker
	styles  map[string]map[string]string
	byIndex map[int]map[string]string
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(b *builder) {
		b.title = title
	}
}

// WithMarkers appends vertical reference lines.
func WithMarkers(markers ...model.Marker) Option {
	return func(b *builder) {
		b.markers = append(b.markers, markers...)
	}
}

// WithStyle merges hints into the style of every series labelled label.
func WithStyle(label string, hints map[string]string) Option {
	return func(b *builder) {
		if len(hints) == 0 {
			return
		}
		if b.styles == nil {
			b.styles = make(map[string]map[string]string)
		}
		if b.styles[label] == nil {
			b.styles[label] = make(map[string]string, len(hints))
		}
		maps.Copy(b.styles[label], hints)
	}
}

// WithSeriesStyle merges hints into the style of the series at index only.
// It is applied after WithStyle, so it wins on conflicting keys.
func WithSeriesStyle(index int, hints map[string]string) Option {
	return func(b *builder) {
		if len(hints) == 0 {
			return
		}
		if b.byIndex == nil {
			b.byIndex = make(map[int]map[string]string)
		}
		if b.byIndex[index] == nil {
			b.byIndex[index] = make(map[string]string, len(hints))
		}
		maps.Copy(b.byIndex[index], hints)
	}
}

// Build projects each curve onto a series, keeping input order as series
// order. Series keep their own x-domains; no resampling is done. An empty
// curve list fails with errs.ErrEmptyInput.
func Build(curves []Curve, opts ...Option) (model.ComparativeChartSpec, error) {
	const op = "chart.build"
	if len(curves) == 0 {
		return model.ComparativeChartSpec{}, errs.WrapKind(op, errs.ErrEmptyInput, fmt.Errorf("no curves to compose"))
	}

	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	series := make([]model.NamedSeries, 0, len(curves))
	for i, c := range curves {
		if c == nil {
			return model.ComparativeChartSpec{}, errs.WrapKind(op, errs.ErrEmptyInput, fmt.Errorf("curve %d is nil", i))
		}
		s := c.Project()
		s.StyleHint = mergeStyle(s.StyleHint, b.styles[s.Label])
		s.StyleHint = mergeStyle(s.StyleHint, b.byIndex[i])
		series = append(series, s)
	}

	return model.ComparativeChartSpec{
		Title:   b.title,
		Series:  series,
		Markers: append([]model.Marker(nil), b.markers...),
	}, nil
}

func mergeStyle(dst, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(extra))
	}
	maps.Copy(dst, extra)
	return dst
}

// MarkersFromSegments returns one marker per interior breakpoint of a
// piecewise model, i.e. the changepoints between segments.
func MarkersFromSegments(segments []model.Segment) []model.Marker {
	if len(segments) < 2 {
		return nil
	}
	out := make([]model.Marker, 0, len(segments)-1)
	for _, s := range segments[1:] {
		out = append(out, model.Marker{X: s.Breakpoint, Label: fmt.Sprintf("changepoint %g", s.Breakpoint)})
	}
	return out
}
