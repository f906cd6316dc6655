package cohort

import (
	"fmt"
	"math"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/survival"
)

const tolerance = 1e-9

// VerifySurvival checks the shape of a Kaplan-Meier curve: the timeline starts
// at 0 and strictly increases, and values never rise or leave [0, 1]. S(0) is 1
// unless events were observed at time 0, in which case it is 1 - d0/n0.
func VerifySurvival(c model.SurvivalCurve) error {
	if err := verifyTimeline(c.Group, c.Timeline, len(c.SurvivalProb)); err != nil {
		return err
	}
	if want := survivalAtOrigin(c); math.Abs(c.SurvivalProb[0]-want) > tolerance {
		return fmt.Errorf("%w: %s: survival at 0 is %g, expected %g", ErrVerification, c.Group, c.SurvivalProb[0], want)
	}
	for i, p := range c.SurvivalProb {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s: survival %g at t=%g outside [0, 1]", ErrVerification, c.Group, p, c.Timeline[i])
		}
		if i > 0 && p > c.SurvivalProb[i-1] {
			return fmt.Errorf("%w: %s: survival rises at t=%g", ErrVerification, c.Group, c.Timeline[i])
		}
	}
	return nil
}

func survivalAtOrigin(c model.SurvivalCurve) float64 {
	if len(c.Table) == 0 {
		return 1
	}
	row := c.Table[0]
	if row.Time != 0 || row.AtRisk == 0 {
		return 1
	}
	return 1 - float64(row.Observed)/float64(row.AtRisk)
}

// VerifyHazard checks that a Nelson-Aalen curve starts at 0 and never falls.
func VerifyHazard(c model.CumulativeHazardCurve) error {
	if err := verifyTimeline(c.Group, c.Timeline, len(c.CumulativeHazard)); err != nil {
		return err
	}
	if c.CumulativeHazard[0] != 0 {
		return fmt.Errorf("%w: %s: hazard at 0 is %g", ErrVerification, c.Group, c.CumulativeHazard[0])
	}
	for i := 1; i < len(c.CumulativeHazard); i++ {
		if c.CumulativeHazard[i] < c.CumulativeHazard[i-1] {
			return fmt.Errorf("%w: %s: hazard falls at t=%g", ErrVerification, c.Group, c.Timeline[i])
		}
	}
	return nil
}

func verifyTimeline(group string, timeline []float64, values int) error {
	if len(timeline) == 0 {
		return fmt.Errorf("%w: %s: empty timeline", ErrVerification, group)
	}
	if len(timeline) != values {
		return fmt.Errorf("%w: %s: %d times for %d values", ErrVerification, group, len(timeline), values)
	}
	if timeline[0] != 0 {
		return fmt.Errorf("%w: %s: timeline starts at %g", ErrVerification, group, timeline[0])
	}
	for i := 1; i < len(timeline); i++ {
		if timeline[i] <= timeline[i-1] {
			return fmt.Errorf("%w: %s: timeline not increasing at index %d", ErrVerification, group, i)
		}
	}
	return nil
}

// VerifyAgainst re-estimates the submitted records locally and compares them
// with the curves the service returned.
func VerifyAgainst(records []Record, km model.SurvivalCurve, na model.CumulativeHazardCurve) error {
	local := make([]model.EventRecord, 0, len(records))
	for _, r := range records {
		if r.Group == km.Group {
			local = append(local, model.EventRecord{SubjectID: r.SubjectID, Time: r.Time, EventObserved: r.EventObserved, Group: r.Group})
		}
	}

	wantKM, err := survival.EstimateKaplanMeier(local)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerification, km.Group, err)
	}
	if err := sameSeries(km.Group, "survival", wantKM.Timeline, wantKM.SurvivalProb, km.Timeline, km.SurvivalProb); err != nil {
		return err
	}

	wantNA, err := survival.EstimateNelsonAalen(local)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerification, na.Group, err)
	}
	return sameSeries(na.Group, "hazard", wantNA.Timeline, wantNA.CumulativeHazard, na.Timeline, na.CumulativeHazard)
}

func sameSeries(group, what string, wantX, wantY, gotX, gotY []float64) error {
	if len(wantX) != len(gotX) || len(wantY) != len(gotY) {
		return fmt.Errorf("%w: %s: %s has %d points, expected %d", ErrVerification, group, what, len(gotX), len(wantX))
	}
	for i := range wantX {
		if math.Abs(wantX[i]-gotX[i]) > tolerance || math.Abs(wantY[i]-gotY[i]) > tolerance {
			return fmt.Errorf("%w: %s: %s point %d is (%g, %g), expected (%g, %g)",
				ErrVerification, group, what, i, gotX[i], gotY[i], wantX[i], wantY[i])
		}
	}
	return nil
}

// VerifyChart checks that the chart holds one series per item, in item order.
func VerifyChart(spec model.ComparativeChartSpec, labels []string) error {
	if len(spec.Series) != len(labels) {
		return fmt.Errorf("%w: chart has %d series, expected %d", ErrVerification, len(spec.Series), len(labels))
	}
	for i, s := range spec.Series {
		if s.Label != labels[i] {
			return fmt.Errorf("%w: series %d is %q, expected %q", ErrVerification, i, s.Label, labels[i])
		}
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("%w: series %q has %d x and %d y values", ErrVerification, s.Label, len(s.X), len(s.Y))
		}
	}
	return nil
}
