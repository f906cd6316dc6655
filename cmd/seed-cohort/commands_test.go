package main

import (
	"bytes"
	"testing"

	"github.com/okian/lifeline/internal/cohort"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCommands(t *testing.T) {
	Convey("Given the seed-cohort command tree", t, func() {
		root := newRootCmd()

		Convey("Then demo and synthetic are registered", func() {
			names := []string{}
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			So(names, ShouldContain, "demo")
			So(names, ShouldContain, "synthetic")
		})

		Convey("Then synthetic flags carry usable defaults", func() {
			syn, _, err := root.Find([]string{"synthetic"})
			So(err, ShouldBeNil)
			So(syn.Flags().Lookup("subjects").DefValue, ShouldEqual, "200")
			So(syn.Flags().Lookup("groups").DefValue, ShouldEqual, "[control,treatment]")
		})

		Convey("Then an unknown log format fails before any request", func() {
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs([]string{"demo", "--log-format", "xml", "--url", "http://127.0.0.1:0"})
			So(root.Execute(), ShouldNotBeNil)
		})
	})

	Convey("Given a synthetic configuration", t, func() {
		syn := cohort.SyntheticConfig{Scale: 10, Shape: 2}

		Convey("Then the overlay inverts the time scale for the CDF model", func() {
			item := weibullOverlay(syn)
			So(item.Source, ShouldEqual, "parametric")
			So(item.Parametric.Parameters["scale"], ShouldAlmostEqual, 0.1)
			So(item.Parametric.Parameters["shape"], ShouldEqual, 2)
			So(item.Parametric.Linspace.Stop, ShouldEqual, 30)
			So(item.Parametric.Linspace.Num, ShouldEqual, defaultOverlayNum)
		})

		Convey("Then the overlay is marked as a CDF on its own axis", func() {
			item := weibullOverlay(syn)
			So(item.Parametric.Group, ShouldStartWith, "Weibull CDF")
			So(item.Style[styleCurve], ShouldEqual, "cdf")
			So(item.Style[styleYAxis], ShouldEqual, "secondary")
		})
	})
}
