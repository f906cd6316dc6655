package cohort

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
)

// Narrative therapy arms and their single observed death times.
var demoCohort = []Record{
	{SubjectID: "patient-1", Time: 17, EventObserved: true, Group: "Supportive Care"},
	{SubjectID: "patient-2", Time: 28, EventObserved: true, Group: "Lonafarnib"},
	{SubjectID: "patient-3", Time: 36, EventObserved: true, Group: "NEUROWEAVE"},
}

// Demo returns the three-arm narrative cohort with fresh record ids.
func Demo() []Record {
	out := make([]Record, len(demoCohort))
	for i, r := range demoCohort {
		r.RecordID = uuid.NewString()
		out[i] = r
	}
	return out
}

// Synthetic draws cfg.Subjects Weibull survival times per group. Group i uses
// scale Scale+i*ScaleStep so the arms separate on a chart. A censored subject
// is dropped from follow-up at a uniform fraction of its true time.
func Synthetic(cfg SyntheticConfig) ([]Record, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible cohorts, not security
	out := make([]Record, 0, len(cfg.Groups)*cfg.Subjects)
	for gi, group := range cfg.Groups {
		scale := cfg.Scale + float64(gi)*cfg.ScaleStep
		for i := 0; i < cfg.Subjects; i++ {
			t := weibullTime(rng, scale, cfg.Shape)
			observed := true
			if rng.Float64() < cfg.CensorRate {
				t *= rng.Float64()
				observed = false
			}
			out = append(out, Record{
				RecordID:      uuid.NewString(),
				SubjectID:     group + "-" + strconv.Itoa(i+1),
				Time:          t,
				EventObserved: observed,
				Group:         group,
			})
		}
	}
	return out, nil
}

// weibullTime inverts the Weibull CDF: t = scale * (-ln U)^(1/shape).
func weibullTime(rng *rand.Rand, scale, shape float64) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return scale * math.Pow(-math.Log(u), 1/shape)
}

// Groups lists the distinct groups of records in first-appearance order.
func Groups(records []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Group]; ok {
			continue
		}
		seen[r.Group] = struct{}{}
		out = append(out, r.Group)
	}
	return out
}
