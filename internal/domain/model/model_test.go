package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventRecord_Validate(t *testing.T) {
	Convey("Given event records", t, func() {
		Convey("When the record is well formed", func() {
			r := model.EventRecord{SubjectID: "s1", Time: 17, EventObserved: true, Group: "Supportive Care"}
			So(r.Validate(), ShouldBeNil)
		})

		Convey("When time is zero", func() {
			r := model.EventRecord{Time: 0, Group: "g"}
			So(r.Validate(), ShouldBeNil)
		})

		Convey("When time is negative", func() {
			err := model.EventRecord{Time: -1, Group: "g"}.Validate()
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "time must be >= 0")
		})

		Convey("When time is not finite", func() {
			So(errors.Is(model.EventRecord{Time: math.NaN(), Group: "g"}.Validate(), errs.ErrValidation), ShouldBeTrue)
			So(errors.Is(model.EventRecord{Time: math.Inf(1), Group: "g"}.Validate(), errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When group is blank", func() {
			err := model.EventRecord{Time: 3, Group: "  "}.Validate()
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "group must not be empty")
		})
	})
}

func TestSurvivalCurve_At(t *testing.T) {
	Convey("Given a survival step function", t, func() {
		c := model.SurvivalCurve{
			Group:        "g",
			Timeline:     []float64{0, 2, 5},
			SurvivalProb: []float64{1, 0.5, 0.25},
		}

		Convey("Then it is right-continuous at each step", func() {
			So(c.At(-1), ShouldEqual, 1)
			So(c.At(0), ShouldEqual, 1)
			So(c.At(1.999), ShouldEqual, 1)
			So(c.At(2), ShouldEqual, 0.5)
			So(c.At(4.9), ShouldEqual, 0.5)
			So(c.At(5), ShouldEqual, 0.25)
			So(c.At(100), ShouldEqual, 0.25)
		})

		Convey("And the median is the first time at or below one half", func() {
			m, ok := c.Median()
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, 2)
		})
	})

	Convey("Given a curve that never reaches one half", t, func() {
		c := model.SurvivalCurve{Timeline: []float64{0, 3}, SurvivalProb: []float64{1, 0.75}}

		Convey("Then the median is undefined", func() {
			_, ok := c.Median()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCumulativeHazardCurve_At(t *testing.T) {
	Convey("Given a cumulative hazard step function", t, func() {
		c := model.CumulativeHazardCurve{
			Timeline:         []float64{0, 1, 4},
			CumulativeHazard: []float64{0, 0.5, 1.5},
		}

		Convey("Then it is zero before the first step and holds between steps", func() {
			So(c.At(-0.5), ShouldEqual, 0)
			So(c.At(0.5), ShouldEqual, 0)
			So(c.At(1), ShouldEqual, 0.5)
			So(c.At(3), ShouldEqual, 0.5)
			So(c.At(4), ShouldEqual, 1.5)
		})
	})
}
