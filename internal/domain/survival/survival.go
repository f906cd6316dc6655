// Package survival estimates survival and cumulative-hazard step functions
// from per-subject time-to-event records.
//
// Both estimators walk the distinct observed times in ascending order. At each
// time t_i, n_i is the number of subjects whose time is >= t_i and d_i is the
// number of events exactly at t_i. Subjects censored at t_i count towards n_i
// and leave the risk set afterwards.
//
//	Kaplan-Meier:  S(t_i) = S(t_{i-1}) * (1 - d_i/n_i),  S before any event = 1
//	Nelson-Aalen:  H(t_i) = H(t_{i-1}) + d_i/n_i,        H before any event = 0
//
// The timeline always starts at 0 and contains every distinct observed time,
// censored or not; censor-only times repeat the previous value.
package survival

import (
	"fmt"
	"sort"

	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
)

// EstimateKaplanMeier computes the product-limit survival estimate for a
// single group. It fails with errs.ErrEstimation when records is empty,
// spans more than one group, or holds a record that does not validate.
func EstimateKaplanMeier(records []model.EventRecord) (model.SurvivalCurve, error) {
	const op = "survival.kaplan_meier"
	group, table, err := eventTable(op, records)
	if err != nil {
		return model.SurvivalCurve{}, err
	}

	timeline := make([]float64, len(table))
	prob := make([]float64, len(table))
	s := 1.0
	for i, row := range table {
		if row.Observed > 0 {
			s *= 1 - float64(row.Observed)/float64(row.AtRisk)
		}
		timeline[i] = row.Time
		prob[i] = s
	}

	return model.SurvivalCurve{
		Group:        group,
		Timeline:     timeline,
		SurvivalProb: prob,
		Table:        table,
	}, nil
}

// EstimateNelsonAalen computes the cumulative hazard estimate for a single
// group. Failure modes match EstimateKaplanMeier.
func EstimateNelsonAalen(records []model.EventRecord) (model.CumulativeHazardCurve, error) {
	const op = "survival.nelson_aalen"
	group, table, err := eventTable(op, records)
	if err != nil {
		return model.CumulativeHazardCurve{}, err
	}

	timeline := make([]float64, len(table))
	hazard := make([]float64, len(table))
	h := 0.0
	for i, row := range table {
		if row.Observed > 0 {
			h += float64(row.Observed) / float64(row.AtRisk)
		}
		timeline[i] = row.Time
		hazard[i] = h
	}

	return model.CumulativeHazardCurve{
		Group:            group,
		Timeline:         timeline,
		CumulativeHazard: hazard,
		Table:            table,
	}, nil
}

// EstimateKaplanMeierByGroup splits records by group and estimates each one
// independently. Curves come back in order of each group's first appearance.
func EstimateKaplanMeierByGroup(records []model.EventRecord) ([]model.SurvivalCurve, error) {
	const op = "survival.kaplan_meier_by_group"
	groups, err := splitGroups(op, records)
	if err != nil {
		return nil, err
	}
	out := make([]model.SurvivalCurve, 0, len(groups))
	for _, g := range groups {
		c, err := EstimateKaplanMeier(g)
		if err != nil {
			return nil, errs.Wrap(op, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// EstimateNelsonAalenByGroup is the cumulative-hazard counterpart of
// EstimateKaplanMeierByGroup.
func EstimateNelsonAalenByGroup(records []model.EventRecord) ([]model.CumulativeHazardCurve, error) {
	const op = "survival.nelson_aalen_by_group"
	groups, err := splitGroups(op, records)
	if err != nil {
		return nil, err
	}
	out := make([]model.CumulativeHazardCurve, 0, len(groups))
	for _, g := range groups {
		c, err := EstimateNelsonAalen(g)
		if err != nil {
			return nil, errs.Wrap(op, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// eventTable validates records and tallies at-risk, observed and censored
// counts at every distinct time. The first row is always at time 0.
func eventTable(op string, records []model.EventRecord) (string, []model.EventCount, error) {
	if len(records) == 0 {
		return "", nil, errs.WrapKind(op, errs.ErrEstimation, fmt.Errorf("no records"))
	}
	group := records[0].Group
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return "", nil, errs.WrapKind(op, errs.ErrEstimation, fmt.Errorf("record %d: %w", i, err))
		}
		if r.Group != group {
			return "", nil, errs.WrapKind(op, errs.ErrEstimation,
				fmt.Errorf("records span groups %q and %q; estimate groups separately", group, r.Group))
		}
	}

	// Sort a copy; the caller's slice stays untouched.
	sorted := make([]model.EventRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	atRisk := len(sorted)
	table := make([]model.EventCount, 0, len(sorted)+1)
	if sorted[0].Time > 0 {
		table = append(table, model.EventCount{Time: 0, AtRisk: atRisk})
	}
	for i := 0; i < len(sorted); {
		t := sorted[i].Time
		row := model.EventCount{Time: t, AtRisk: atRisk}
		j := i
		for ; j < len(sorted) && sorted[j].Time == t; j++ {
			if sorted[j].EventObserved {
				row.Observed++
			} else {
				row.Censored++
			}
		}
		table = append(table, row)
		atRisk -= row.Observed + row.Censored
		i = j
	}
	return group, table, nil
}

// splitGroups partitions records by group in first-appearance order.
func splitGroups(op string, records []model.EventRecord) ([][]model.EventRecord, error) {
	if len(records) == 0 {
		return nil, errs.WrapKind(op, errs.ErrEstimation, fmt.Errorf("no records"))
	}
	index := make(map[string]int)
	var groups [][]model.EventRecord
	for _, r := range records {
		i, ok := index[r.Group]
		if !ok {
			i = len(groups)
			index[r.Group] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups, nil
}
