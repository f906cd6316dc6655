package chart_test

import (
	"errors"
	"testing"

	"github.com/okian/lifeline/internal/domain/chart"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/parametric"
	"github.com/okian/lifeline/internal/domain/survival"
	"github.com/okian/lifeline/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	Convey("Given three heterogeneous curves", t, func() {
		km, err := survival.EstimateKaplanMeier([]model.EventRecord{
			{SubjectID: "Sammy Basso", Time: 28, EventObserved: true, Group: "Lonafarnib"},
		})
		So(err, ShouldBeNil)
		na, err := survival.EstimateNelsonAalen([]model.EventRecord{
			{SubjectID: "Sam Berns", Time: 17, EventObserved: true, Group: "Supportive Care"},
		})
		So(err, ShouldBeNil)
		wb, err := parametric.Evaluate(model.Weibull,
			parametric.Params{Values: map[string]float64{"scale": 1, "shape": 1}},
			[]float64{0, 1, 2}, parametric.WithGroup("Weibull Fit"))
		So(err, ShouldBeNil)

		Convey("When building a chart", func() {
			spec, err := chart.Build([]chart.Curve{wb, km, na}, chart.WithTitle("Comparison"))
			So(err, ShouldBeNil)

			Convey("Then there is one series per curve in input order", func() {
				So(spec.Title, ShouldEqual, "Comparison")
				So(len(spec.Series), ShouldEqual, 3)
				So(spec.Series[0].Label, ShouldEqual, "Weibull Fit")
				So(spec.Series[1].Label, ShouldEqual, "Lonafarnib")
				So(spec.Series[2].Label, ShouldEqual, "Supportive Care")
			})

			Convey("And each series keeps its own x-domain", func() {
				So(spec.Series[0].X, ShouldResemble, []float64{0, 1, 2})
				So(spec.Series[1].X, ShouldResemble, []float64{0, 28})
				So(spec.Series[1].Y, ShouldResemble, []float64{1, 0})
				So(spec.Series[2].X, ShouldResemble, []float64{0, 17})
				So(spec.Series[2].Y, ShouldResemble, []float64{0, 1})
			})

			Convey("And style hints name the source of each series", func() {
				So(spec.Series[0].StyleHint[model.HintSource], ShouldEqual, model.SourceParametric)
				So(spec.Series[0].StyleHint[model.HintModel], ShouldEqual, "weibull")
				So(spec.Series[1].StyleHint[model.HintSource], ShouldEqual, model.SourceKaplanMeier)
				So(spec.Series[1].StyleHint[model.HintLineShape], ShouldEqual, "hv")
				So(spec.Series[2].StyleHint[model.HintSource], ShouldEqual, model.SourceNelsonAalen)
			})

			Convey("And the chart does not alias the source curves", func() {
				spec.Series[1].Y[0] = 42
				So(km.SurvivalProb[0], ShouldEqual, 1)
			})
		})

		Convey("When extra styles and markers are supplied", func() {
			spec, err := chart.Build([]chart.Curve{km, na},
				chart.WithStyle("Lonafarnib", map[string]string{"color": "green"}),
				chart.WithMarkers(model.Marker{X: 17, Label: "Sam Berns"}, model.Marker{X: 28}),
			)
			So(err, ShouldBeNil)

			Convey("Then hints merge into matching series only", func() {
				So(spec.Series[0].StyleHint["color"], ShouldEqual, "green")
				So(spec.Series[0].StyleHint[model.HintSource], ShouldEqual, model.SourceKaplanMeier)
				_, ok := spec.Series[1].StyleHint["color"]
				So(ok, ShouldBeFalse)
			})

			Convey("And markers are kept in order", func() {
				So(spec.Markers, ShouldResemble, []model.Marker{{X: 17, Label: "Sam Berns"}, {X: 28}})
			})
		})
	})

	Convey("Given two curves of the same group", t, func() {
		records := []model.EventRecord{{SubjectID: "patient-3", Time: 36, EventObserved: true, Group: "NEUROWEAVE"}}
		km, err := survival.EstimateKaplanMeier(records)
		So(err, ShouldBeNil)
		na, err := survival.EstimateNelsonAalen(records)
		So(err, ShouldBeNil)

		Convey("When each series is styled by position", func() {
			spec, err := chart.Build([]chart.Curve{km, na},
				chart.WithStyle("NEUROWEAVE", map[string]string{"width": "2", "color": "grey"}),
				chart.WithSeriesStyle(0, map[string]string{"color": "red"}),
				chart.WithSeriesStyle(1, map[string]string{"color": "blue"}),
			)
			So(err, ShouldBeNil)

			Convey("Then each keeps its own hints and shared label hints still apply", func() {
				So(spec.Series[0].StyleHint["color"], ShouldEqual, "red")
				So(spec.Series[1].StyleHint["color"], ShouldEqual, "blue")
				So(spec.Series[0].StyleHint["width"], ShouldEqual, "2")
				So(spec.Series[1].StyleHint["width"], ShouldEqual, "2")
				So(spec.Series[0].StyleHint[model.HintSource], ShouldEqual, model.SourceKaplanMeier)
				So(spec.Series[1].StyleHint[model.HintSource], ShouldEqual, model.SourceNelsonAalen)
			})
		})
	})

	Convey("Given no curves", t, func() {
		_, err := chart.Build(nil)

		Convey("Then an empty input error is returned", func() {
			So(errors.Is(err, errs.ErrEmptyInput), ShouldBeTrue)
		})
	})

	Convey("Given a nil curve among others", t, func() {
		_, err := chart.Build([]chart.Curve{nil})
		So(errors.Is(err, errs.ErrEmptyInput), ShouldBeTrue)
	})
}

func TestMarkersFromSegments(t *testing.T) {
	Convey("Given a three-segment piecewise hazard", t, func() {
		markers := chart.MarkersFromSegments([]model.Segment{
			{Breakpoint: 0}, {Breakpoint: 17}, {Breakpoint: 28},
		})

		Convey("Then every interior breakpoint becomes a marker", func() {
			So(len(markers), ShouldEqual, 2)
			So(markers[0].X, ShouldEqual, 17)
			So(markers[1].X, ShouldEqual, 28)
			So(markers[0].Label, ShouldEqual, "changepoint 17")
		})
	})

	Convey("Given a single segment", t, func() {
		So(chart.MarkersFromSegments([]model.Segment{{Breakpoint: 0}}), ShouldBeNil)
	})
}
