package parametric_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/parametric"
	"github.com/okian/lifeline/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

// changepoints reproduces the three-phase hazard used by the lifespan dashboard.
var changepoints = []model.Segment{
	{Breakpoint: 0, Slope: -0.04, Intercept: 0.98},
	{Breakpoint: 17, Slope: -0.015, Intercept: 0.3},
	{Breakpoint: 28, Slope: -0.01, Intercept: 0.15},
}

func ys(c model.ParametricCurve) []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Y
	}
	return out
}

func TestEvaluate_Weibull(t *testing.T) {
	Convey("Given a unit Weibull model", t, func() {
		params := parametric.Params{Values: map[string]float64{"scale": 1, "shape": 1}}

		Convey("When evaluating over [0, 1, 2]", func() {
			curve, err := parametric.Evaluate(model.Weibull, params, []float64{0, 1, 2})
			So(err, ShouldBeNil)

			Convey("Then it matches 1 - exp(-x)", func() {
				y := ys(curve)
				So(y[0], ShouldEqual, 0)
				So(y[1], ShouldAlmostEqual, 0.632, 0.001)
				So(y[2], ShouldAlmostEqual, 0.865, 0.001)
				So(y[2], ShouldAlmostEqual, 1-math.Exp(-2), 1e-12)
			})

			Convey("And the curve records its kind, parameters and default label", func() {
				So(curve.Kind, ShouldEqual, model.Weibull)
				So(curve.Group, ShouldEqual, "weibull")
				So(curve.Parameters, ShouldResemble, map[string]float64{"scale": 1, "shape": 1})
				So(curve.Points[1].X, ShouldEqual, 1)
			})
		})
	})

	Convey("Given the P-P fit parameters", t, func() {
		params := parametric.Params{Values: map[string]float64{"scale": 3.1, "shape": 1.5}}
		domain, err := parametric.Linspace(0.01, 1, 100)
		So(err, ShouldBeNil)

		curve, err := parametric.Evaluate(model.Weibull, params, domain, parametric.WithGroup("Weibull Fit"))
		So(err, ShouldBeNil)

		Convey("Then the CDF is increasing and bounded", func() {
			So(curve.Group, ShouldEqual, "Weibull Fit")
			So(len(curve.Points), ShouldEqual, 100)
			for i := 1; i < len(curve.Points); i++ {
				So(curve.Points[i].Y, ShouldBeGreaterThan, curve.Points[i-1].Y)
				So(curve.Points[i].Y, ShouldBeLessThan, 1)
			}
			So(curve.Points[99].Y, ShouldAlmostEqual, 1-math.Exp(-math.Pow(3.1, 1.5)), 1e-12)
		})
	})

	Convey("Given invalid Weibull parameters", t, func() {
		cases := []map[string]float64{
			{"scale": 0, "shape": 1},
			{"scale": 1, "shape": -2},
			{"scale": math.NaN(), "shape": 1},
			{"scale": 1},
			nil,
		}
		for _, values := range cases {
			_, err := parametric.Evaluate(model.Weibull, parametric.Params{Values: values}, []float64{1})
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		}
	})
}

func TestEvaluate_PiecewiseLinearHazard(t *testing.T) {
	Convey("Given the three-phase changepoint hazard", t, func() {
		params := parametric.Params{Segments: changepoints}

		Convey("When evaluating around the breakpoints", func() {
			curve, err := parametric.Evaluate(model.PiecewiseLinearHazard, params, []float64{-1, 0, 16, 17, 27, 28, 39})
			So(err, ShouldBeNil)
			y := ys(curve)

			Convey("Then each x maps to the segment whose closed-open interval holds it", func() {
				So(y[0], ShouldAlmostEqual, 1.02, 1e-12) // first segment extends left
				So(y[1], ShouldAlmostEqual, 0.98, 1e-12)
				So(y[2], ShouldAlmostEqual, 0.34, 1e-12)
				So(y[3], ShouldAlmostEqual, 0.3, 1e-12) // boundary opens the next segment
				So(y[4], ShouldAlmostEqual, 0.15, 1e-12)
				So(y[5], ShouldAlmostEqual, 0.15, 1e-12)
				So(y[6], ShouldAlmostEqual, 0.04, 1e-12)
			})

			Convey("And the segments travel with the curve", func() {
				So(curve.Segments, ShouldResemble, changepoints)
				So(curve.Parameters, ShouldBeNil)
			})
		})

		Convey("When evaluating the dashboard age range", func() {
			ages, err := parametric.Arange(0, 40, 1)
			So(err, ShouldBeNil)
			curve, err := parametric.Evaluate(model.PiecewiseLinearHazard, params, ages)
			So(err, ShouldBeNil)
			So(len(curve.Points), ShouldEqual, 40)
			So(curve.Points[39].X, ShouldEqual, 39)
		})
	})

	Convey("Given malformed segments", t, func() {
		bad := [][]model.Segment{
			nil,
			{{Breakpoint: 5}, {Breakpoint: 5}},
			{{Breakpoint: 5}, {Breakpoint: 2}},
			{{Breakpoint: math.Inf(1)}},
		}
		for _, segs := range bad {
			_, err := parametric.Evaluate(model.PiecewiseLinearHazard, parametric.Params{Segments: segs}, []float64{1})
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		}
	})
}

func TestEvaluate_OtherKinds(t *testing.T) {
	Convey("Given an exponential model", t, func() {
		curve, err := parametric.Evaluate(model.Exponential,
			parametric.Params{Values: map[string]float64{"rate": 0.5}}, []float64{-1, 0, 2})
		So(err, ShouldBeNil)
		y := ys(curve)
		So(y[0], ShouldEqual, 0)
		So(y[1], ShouldEqual, 0)
		So(y[2], ShouldAlmostEqual, 1-math.Exp(-1), 1e-12)
	})

	Convey("Given the identity reference line", t, func() {
		curve, err := parametric.Evaluate(model.Identity, parametric.Params{}, []float64{0.1, 0.5, 1},
			parametric.WithGroup("Ideal Fit"))
		So(err, ShouldBeNil)
		So(ys(curve), ShouldResemble, []float64{0.1, 0.5, 1})
		So(curve.Group, ShouldEqual, "Ideal Fit")
	})

	Convey("Given an unknown kind", t, func() {
		_, err := parametric.Evaluate(model.ModelKind("gompertz"), parametric.Params{}, []float64{1})
		So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "unknown model kind")
	})

	Convey("Given an unusable domain", t, func() {
		_, err := parametric.Evaluate(model.Identity, parametric.Params{}, nil)
		So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)

		_, err = parametric.Evaluate(model.Identity, parametric.Params{}, []float64{1, math.NaN()})
		So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
	})
}

func TestDomainHelpers(t *testing.T) {
	Convey("Given Linspace", t, func() {
		Convey("Then it includes both endpoints", func() {
			xs, err := parametric.Linspace(0, 1, 5)
			So(err, ShouldBeNil)
			So(xs, ShouldResemble, []float64{0, 0.25, 0.5, 0.75, 1})
		})

		Convey("And a single point is the start", func() {
			xs, err := parametric.Linspace(3, 9, 1)
			So(err, ShouldBeNil)
			So(xs, ShouldResemble, []float64{3})
		})

		Convey("And a non-positive count is rejected", func() {
			_, err := parametric.Linspace(0, 1, 0)
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		})
	})

	Convey("Given Arange", t, func() {
		Convey("Then stop is excluded", func() {
			xs, err := parametric.Arange(0, 3, 1)
			So(err, ShouldBeNil)
			So(xs, ShouldResemble, []float64{0, 1, 2})
		})

		Convey("And an empty range yields no points", func() {
			xs, err := parametric.Arange(5, 5, 1)
			So(err, ShouldBeNil)
			So(xs, ShouldBeEmpty)
		})

		Convey("And a non-positive step is rejected", func() {
			_, err := parametric.Arange(0, 3, 0)
			So(errors.Is(err, errs.ErrInvalidParameter), ShouldBeTrue)
		})
	})
}
