package model

// Style hint keys and the sources they describe.
const (
	HintSource    = "source"
	HintLineShape = "line_shape"
	HintModel     = "model"

	SourceKaplanMeier = "kaplan_meier"
	SourceNelsonAalen = "nelson_aalen"
	SourceParametric  = "parametric"
)

// Project turns the curve into a step-shaped chart series labelled by group.
func (c SurvivalCurve) Project() NamedSeries {
	return NamedSeries{
		Label:     c.Group,
		X:         append([]float64(nil), c.Timeline...),
		Y:         append([]float64(nil), c.SurvivalProb...),
		StyleHint: map[string]string{HintSource: SourceKaplanMeier, HintLineShape: "hv"},
	}
}

// Project turns the curve into a step-shaped chart series labelled by group.
func (c CumulativeHazardCurve) Project() NamedSeries {
	return NamedSeries{
		Label:     c.Group,
		X:         append([]float64(nil), c.Timeline...),
		Y:         append([]float64(nil), c.CumulativeHazard...),
		StyleHint: map[string]string{HintSource: SourceNelsonAalen, HintLineShape: "hv"},
	}
}

// Project turns the evaluated points into a linear chart series.
func (c ParametricCurve) Project() NamedSeries {
	x := make([]float64, len(c.Points))
	y := make([]float64, len(c.Points))
	for i, p := range c.Points {
		x[i], y[i] = p.X, p.Y
	}
	return NamedSeries{
		Label:     c.Group,
		X:         x,
		Y:         y,
		StyleHint: map[string]string{HintSource: SourceParametric, HintLineShape: "linear", HintModel: string(c.Kind)},
	}
}
