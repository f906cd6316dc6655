package survival_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/survival"
	"github.com/okian/lifeline/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-12

func rec(t float64, event bool) model.EventRecord {
	return model.EventRecord{Time: t, EventObserved: event, Group: "g"}
}

func TestEstimateKaplanMeier(t *testing.T) {
	Convey("Given a small group with ties and censoring", t, func() {
		records := []model.EventRecord{
			rec(4, false), rec(2, true), rec(1, true), rec(3, true), rec(2, false),
		}

		Convey("When estimating the survival function", func() {
			curve, err := survival.EstimateKaplanMeier(records)
			So(err, ShouldBeNil)

			Convey("Then the timeline starts at 0 and lists every distinct time", func() {
				So(curve.Group, ShouldEqual, "g")
				So(curve.Timeline, ShouldResemble, []float64{0, 1, 2, 3, 4})
			})

			Convey("And the product-limit steps are applied per distinct time", func() {
				want := []float64{1, 0.8, 0.6, 0.3, 0.3}
				So(len(curve.SurvivalProb), ShouldEqual, len(want))
				for i := range want {
					So(curve.SurvivalProb[i], ShouldAlmostEqual, want[i], tolerance)
				}
			})

			Convey("And the event table tracks the risk set", func() {
				So(curve.Table, ShouldResemble, []model.EventCount{
					{Time: 0, AtRisk: 5},
					{Time: 1, AtRisk: 5, Observed: 1},
					{Time: 2, AtRisk: 4, Observed: 1, Censored: 1},
					{Time: 3, AtRisk: 2, Observed: 1},
					{Time: 4, AtRisk: 1, Censored: 1},
				})
			})

			Convey("And the caller's slice is left unsorted", func() {
				So(records[0].Time, ShouldEqual, 4)
				So(records[1].Time, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a single subject whose event is observed", t, func() {
		curve, err := survival.EstimateKaplanMeier([]model.EventRecord{rec(17, true)})
		So(err, ShouldBeNil)

		Convey("Then the curve is 1 before the event time and 0 from it on", func() {
			So(curve.Timeline, ShouldResemble, []float64{0, 17})
			So(curve.SurvivalProb, ShouldResemble, []float64{1, 0})
			So(curve.At(0), ShouldEqual, 1)
			So(curve.At(16.999), ShouldEqual, 1)
			So(curve.At(17), ShouldEqual, 0)
			So(curve.At(40), ShouldEqual, 0)
		})
	})

	Convey("Given a single censored subject", t, func() {
		curve, err := survival.EstimateKaplanMeier([]model.EventRecord{rec(28, false)})
		So(err, ShouldBeNil)

		Convey("Then no drop occurs up to the censoring time", func() {
			So(curve.SurvivalProb, ShouldResemble, []float64{1, 1})
			for _, x := range []float64{0, 10, 27.5, 28} {
				So(curve.At(x), ShouldEqual, 1)
			}
		})
	})

	Convey("Given an event observed at time zero", t, func() {
		curve, err := survival.EstimateKaplanMeier([]model.EventRecord{rec(0, true), rec(5, false)})
		So(err, ShouldBeNil)

		Convey("Then the drop is applied at zero without duplicating the origin", func() {
			So(curve.Timeline, ShouldResemble, []float64{0, 5})
			So(curve.SurvivalProb[0], ShouldAlmostEqual, 0.5, tolerance)
		})
	})

	Convey("Given no records", t, func() {
		_, err := survival.EstimateKaplanMeier(nil)

		Convey("Then an estimation error is returned", func() {
			So(errors.Is(err, errs.ErrEstimation), ShouldBeTrue)
		})
	})

	Convey("Given records from two groups", t, func() {
		_, err := survival.EstimateKaplanMeier([]model.EventRecord{
			{Time: 1, EventObserved: true, Group: "a"},
			{Time: 2, EventObserved: true, Group: "b"},
		})

		Convey("Then the groups are not pooled", func() {
			So(errors.Is(err, errs.ErrEstimation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "estimate groups separately")
		})
	})

	Convey("Given a record that would not pass store validation", t, func() {
		_, err := survival.EstimateKaplanMeier([]model.EventRecord{rec(-3, true)})

		Convey("Then it surfaces as an estimation error caused by validation", func() {
			So(errors.Is(err, errs.ErrEstimation), ShouldBeTrue)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestEstimateNelsonAalen(t *testing.T) {
	Convey("Given a small group with ties and censoring", t, func() {
		records := []model.EventRecord{
			rec(1, true), rec(2, true), rec(2, false), rec(3, true), rec(4, false),
		}

		Convey("When estimating the cumulative hazard", func() {
			curve, err := survival.EstimateNelsonAalen(records)
			So(err, ShouldBeNil)

			Convey("Then d/n increments accumulate from zero", func() {
				want := []float64{0, 0.2, 0.45, 0.95, 0.95}
				So(curve.Timeline, ShouldResemble, []float64{0, 1, 2, 3, 4})
				for i := range want {
					So(curve.CumulativeHazard[i], ShouldAlmostEqual, want[i], tolerance)
				}
			})
		})
	})

	Convey("Given a single observed subject", t, func() {
		curve, err := survival.EstimateNelsonAalen([]model.EventRecord{rec(36, true)})
		So(err, ShouldBeNil)

		Convey("Then the hazard jumps by one at the event time", func() {
			So(curve.CumulativeHazard, ShouldResemble, []float64{0, 1})
			So(curve.At(35), ShouldEqual, 0)
			So(curve.At(36), ShouldEqual, 1)
		})
	})

	Convey("Given no records", t, func() {
		_, err := survival.EstimateNelsonAalen([]model.EventRecord{})
		So(errors.Is(err, errs.ErrEstimation), ShouldBeTrue)
	})
}

func TestEstimatorInvariants(t *testing.T) {
	Convey("Given randomly generated groups", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic seed for reproducible testing

		for trial := 0; trial < 200; trial++ {
			n := 1 + rng.Intn(30)
			records := make([]model.EventRecord, n)
			for i := range records {
				// Rounded times force plenty of ties.
				records[i] = rec(1+math.Round(rng.Float64()*20), rng.Intn(3) > 0)
			}

			km, err := survival.EstimateKaplanMeier(records)
			So(err, ShouldBeNil)
			na, err := survival.EstimateNelsonAalen(records)
			So(err, ShouldBeNil)

			So(km.Timeline[0], ShouldEqual, 0)
			So(km.SurvivalProb[0], ShouldEqual, 1)
			So(na.CumulativeHazard[0], ShouldEqual, 0)
			So(len(km.Timeline), ShouldEqual, len(km.SurvivalProb))
			So(len(na.Timeline), ShouldEqual, len(na.CumulativeHazard))

			for i := 1; i < len(km.Timeline); i++ {
				So(km.Timeline[i], ShouldBeGreaterThan, km.Timeline[i-1])
				So(km.SurvivalProb[i], ShouldBeLessThanOrEqualTo, km.SurvivalProb[i-1])
				So(km.SurvivalProb[i], ShouldBeBetweenOrEqual, 0, 1)
				So(na.CumulativeHazard[i], ShouldBeGreaterThanOrEqualTo, na.CumulativeHazard[i-1])
			}
		}
	})
}

func TestEstimateByGroup(t *testing.T) {
	Convey("Given the three narrative subjects in one slice", t, func() {
		records := []model.EventRecord{
			{SubjectID: "Sam Berns", Time: 17, EventObserved: true, Group: "Supportive Care"},
			{SubjectID: "Sammy Basso", Time: 28, EventObserved: true, Group: "Lonafarnib"},
			{SubjectID: "Projected", Time: 36, EventObserved: true, Group: "NEUROWEAVE"},
		}

		Convey("When estimating survival per group", func() {
			curves, err := survival.EstimateKaplanMeierByGroup(records)
			So(err, ShouldBeNil)

			Convey("Then each group gets its own curve in first-appearance order", func() {
				So(len(curves), ShouldEqual, 3)
				So(curves[0].Group, ShouldEqual, "Supportive Care")
				So(curves[1].Group, ShouldEqual, "Lonafarnib")
				So(curves[2].Group, ShouldEqual, "NEUROWEAVE")
				So(curves[1].Timeline, ShouldResemble, []float64{0, 28})
				So(curves[1].SurvivalProb, ShouldResemble, []float64{1, 0})
			})
		})

		Convey("When estimating cumulative hazard per group", func() {
			curves, err := survival.EstimateNelsonAalenByGroup(records)
			So(err, ShouldBeNil)
			So(len(curves), ShouldEqual, 3)
			So(curves[2].CumulativeHazard, ShouldResemble, []float64{0, 1})
		})
	})

	Convey("Given no records", t, func() {
		_, err := survival.EstimateKaplanMeierByGroup(nil)
		So(errors.Is(err, errs.ErrEstimation), ShouldBeTrue)
	})
}
