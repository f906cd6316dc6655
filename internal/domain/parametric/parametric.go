// Package parametric evaluates closed-form hazard and distribution curves
// used as comparison overlays next to non-parametric estimates.
package parametric

import (
	"fmt"
	"math"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
)

// Parameter names understood by the supported families.
const (
	ParamScale = "scale"
	ParamShape = "shape"
	ParamRate  = "rate"
)

// Params carries a model's scalar parameters and, for piecewise models,
// its ordered segments.
type Params struct {
	Values   map[string]float64
	Segments []model.Segment
}

// Option applies a configuration option to an evaluation.
type Option func(*evaluation)

type evaluation struct {
	group string
}

// WithGroup sets the label carried by the evaluated curve.
// It defaults to the model kind.
func WithGroup(group string) Option {
	return func(e *evaluation) {
		if group != "" {
			e.group = group
		}
	}
}

// curveFunc maps one domain value to its curve value.
type curveFunc func(x float64) float64

// Evaluate computes the curve of the given kind at every point of domain.
// Parameters outside their valid range, an unknown kind, or an empty or
// non-finite domain fail with errs.ErrInvalidParameter.
func Evaluate(kind model.ModelKind, params Params, domain []float64, opts ...Option) (model.ParametricCurve, error) {
	const op = "parametric.evaluate"

	e := evaluation{group: string(kind)}
	for _, opt := range opts {
		opt(&e)
	}

	if len(domain) == 0 {
		return model.ParametricCurve{}, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("domain must not be empty"))
	}
	for i, x := range domain {
		if !finite(x) {
			return model.ParametricCurve{}, errs.WrapKind(op, errs.ErrInvalidParameter, fmt.Errorf("domain[%d] is not finite", i))
		}
	}

	f, used, err := build(kind, params)
	if err != nil {
		return model.ParametricCurve{}, errs.WrapKind(op, errs.ErrInvalidParameter, err)
	}

	points := make([]model.Point, len(domain))
	for i, x := range domain {
		points[i] = model.Point{X: x, Y: f(x)}
	}

	curve := model.ParametricCurve{
		Group:      e.group,
		Kind:       kind,
		Parameters: used,
		Points:     points,
	}
	if kind == model.PiecewiseLinearHazard {
		curve.Segments = append([]model.Segment(nil), params.Segments...)
	}
	return curve, nil
}

// build validates params for kind and returns the curve function together
// with the scalar parameters it consumed.
func build(kind model.ModelKind, params Params) (curveFunc, map[string]float64, error) {
	switch kind {
	case model.Weibull:
		scale, err := positive(params.Values, ParamScale)
		if err != nil {
			return nil, nil, err
		}
		shape, err := positive(params.Values, ParamShape)
		if err != nil {
			return nil, nil, err
		}
		return weibullCDF(scale, shape), map[string]float64{ParamScale: scale, ParamShape: shape}, nil

	case model.Exponential:
		rate, err := positive(params.Values, ParamRate)
		if err != nil {
			return nil, nil, err
		}
		return exponentialCDF(rate), map[string]float64{ParamRate: rate}, nil

	case model.PiecewiseLinearHazard:
		if err := validateSegments(params.Segments); err != nil {
			return nil, nil, err
		}
		return piecewise(params.Segments), nil, nil

	case model.Identity:
		return func(x float64) float64 { return x }, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown model kind %q", kind)
	}
}

// weibullCDF returns F(x) = 1 - exp(-(x*scale)^shape), with F(x) = 0 for x <= 0.
func weibullCDF(scale, shape float64) curveFunc {
	return func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return -math.Expm1(-math.Pow(x*scale, shape))
	}
}

// exponentialCDF returns F(x) = 1 - exp(-rate*x), with F(x) = 0 for x <= 0.
func exponentialCDF(rate float64) curveFunc {
	return func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return -math.Expm1(-rate * x)
	}
}

// piecewise selects the segment whose closed-open interval holds x. The first
// segment also covers everything below its breakpoint.
func piecewise(segments []model.Segment) curveFunc {
	segs := append([]model.Segment(nil), segments...)
	return func(x float64) float64 {
		s := segs[0]
		for _, next := range segs[1:] {
			if x < next.Breakpoint {
				break
			}
			s = next
		}
		return s.Intercept + s.Slope*(x-s.Breakpoint)
	}
}

func validateSegments(segments []model.Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("piecewise model needs at least one segment")
	}
	for i, s := range segments {
		if !finite(s.Breakpoint) || !finite(s.Slope) || !finite(s.Intercept) {
			return fmt.Errorf("segment %d has a non-finite value", i)
		}
		if i > 0 && s.Breakpoint <= segments[i-1].Breakpoint {
			return fmt.Errorf("segment %d breakpoint %v must be greater than %v", i, s.Breakpoint, segments[i-1].Breakpoint)
		}
	}
	return nil
}

func positive(values map[string]float64, name string) (float64, error) {
	v, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	if !finite(v) || v <= 0 {
		return 0, fmt.Errorf("parameter %q must be > 0, got %v", name, v)
	}
	return v, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
