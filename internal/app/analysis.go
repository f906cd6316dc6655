package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/lifeline/internal/domain/chart"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/parametric"
	"github.com/okian/lifeline/internal/domain/survival"
	"github.com/okian/lifeline/pkg/errs"
	"github.com/okian/lifeline/pkg/logger"
	"github.com/okian/lifeline/pkg/metrics"
)

// Survival estimates the Kaplan-Meier curve of a stored group.
func (s *Service) Survival(ctx context.Context, group string) (model.SurvivalCurve, error) {
	const op = "service.survival"

	records, err := s.estimationInput(ctx, op, group)
	if err != nil {
		metrics.RecordEstimationError(model.SourceKaplanMeier)
		return model.SurvivalCurve{}, err
	}

	start := time.Now()
	curve, err := survival.EstimateKaplanMeier(records)
	if err != nil {
		metrics.RecordEstimationError(model.SourceKaplanMeier)
		return model.SurvivalCurve{}, errs.Wrap(op, err)
	}
	s.observeEstimation(ctx, model.SourceKaplanMeier, group, len(records), start)
	return curve, nil
}

// Hazard estimates the Nelson-Aalen cumulative hazard of a stored group.
func (s *Service) Hazard(ctx context.Context, group string) (model.CumulativeHazardCurve, error) {
	const op = "service.hazard"

	records, err := s.estimationInput(ctx, op, group)
	if err != nil {
		metrics.RecordEstimationError(model.SourceNelsonAalen)
		return model.CumulativeHazardCurve{}, err
	}

	start := time.Now()
	curve, err := survival.EstimateNelsonAalen(records)
	if err != nil {
		metrics.RecordEstimationError(model.SourceNelsonAalen)
		return model.CumulativeHazardCurve{}, errs.Wrap(op, err)
	}
	s.observeEstimation(ctx, model.SourceNelsonAalen, group, len(records), start)
	return curve, nil
}

// estimationInput loads a group's records. An empty group is an estimation
// error that also carries ErrUnknownGroup.
func (s *Service) estimationInput(ctx context.Context, op, group string) ([]model.EventRecord, error) {
	records := s.currentStore().RecordsForGroup(ctx, group)
	if len(records) == 0 {
		return nil, errs.WrapKind(op, errs.ErrEstimation, fmt.Errorf("%w: %q", ErrUnknownGroup, group))
	}
	return records, nil
}

func (s *Service) observeEstimation(ctx context.Context, estimator, group string, n int, start time.Time) {
	took := time.Since(start)
	metrics.RecordEstimation(estimator, float64(took.Microseconds())/1000)
	s.log().Debug(ctx, "curve estimated",
		logger.String("estimator", estimator),
		logger.String("group", group),
		logger.Int("records", n),
		logger.Duration("took", took))
}

// ParametricSpec names a model and the domain to evaluate it over.
type ParametricSpec struct {
	Group  string
	Kind   model.ModelKind
	Params parametric.Params
	Domain []float64
}

// Parametric evaluates spec. Domains longer than the configured cap fail
// with errs.ErrInvalidParameter.
func (s *Service) Parametric(_ context.Context, spec ParametricSpec) (model.ParametricCurve, error) {
	const op = "service.parametric"

	if len(spec.Domain) > s.maxDomainPoints {
		return model.ParametricCurve{}, errs.WrapKind(op, errs.ErrInvalidParameter,
			fmt.Errorf("domain has %d points, limit is %d", len(spec.Domain), s.maxDomainPoints))
	}
	curve, err := parametric.Evaluate(spec.Kind, spec.Params, spec.Domain, parametric.WithGroup(spec.Group))
	if err != nil {
		return model.ParametricCurve{}, errs.Wrap(op, err)
	}
	metrics.RecordParametricEvaluation(string(spec.Kind))
	return curve, nil
}

// ChartItem selects one curve for a chart: a stored group's Kaplan-Meier or
// Nelson-Aalen estimate, or a parametric evaluation.
type ChartItem struct {
	Source     string // model.SourceKaplanMeier, model.SourceNelsonAalen or model.SourceParametric
	Group      string
	Parametric *ParametricSpec
	Style      map[string]string
	// Changepoints adds a marker per interior breakpoint of a piecewise model.
	Changepoints bool
}

// ChartRequest is the input of Chart.
type ChartRequest struct {
	Title   string
	Items   []ChartItem
	Markers []model.Marker
}

// Chart resolves every item to a curve and builds the comparative chart.
// Series follow item order.
func (s *Service) Chart(ctx context.Context, req ChartRequest) (model.ComparativeChartSpec, error) {
	const op = "service.chart"

	if len(req.Items) > s.maxChartItems {
		return model.ComparativeChartSpec{}, errs.WrapKind(op, errs.ErrValidation,
			fmt.Errorf("chart has %d items, limit is %d", len(req.Items), s.maxChartItems))
	}

	curves := make([]chart.Curve, 0, len(req.Items))
	opts := []chart.Option{chart.WithTitle(req.Title), chart.WithMarkers(req.Markers...)}
	for i, item := range req.Items {
		c, err := s.resolve(ctx, item)
		if err != nil {
			return model.ComparativeChartSpec{}, errs.Wrap(op, fmt.Errorf("item %d: %w", i, err))
		}
		curves = append(curves, c)

		if len(item.Style) > 0 {
			opts = append(opts, chart.WithSeriesStyle(i, item.Style))
		}
		if item.Changepoints && item.Parametric != nil {
			opts = append(opts, chart.WithMarkers(chart.MarkersFromSegments(item.Parametric.Params.Segments)...))
		}
	}

	spec, err := chart.Build(curves, opts...)
	if err != nil {
		return model.ComparativeChartSpec{}, errs.Wrap(op, err)
	}
	metrics.RecordChartBuilt(len(spec.Series))
	return spec, nil
}

func (s *Service) resolve(ctx context.Context, item ChartItem) (chart.Curve, error) {
	switch item.Source {
	case model.SourceKaplanMeier:
		c, err := s.Survival(ctx, item.Group)
		if err != nil {
			return nil, err
		}
		return c, nil
	case model.SourceNelsonAalen:
		c, err := s.Hazard(ctx, item.Group)
		if err != nil {
			return nil, err
		}
		return c, nil
	case model.SourceParametric:
		if item.Parametric == nil {
			return nil, errs.NewKind("service.resolve", errs.ErrInvalidParameter)
		}
		spec := *item.Parametric
		if spec.Group == "" {
			spec.Group = item.Group
		}
		c, err := s.Parametric(ctx, spec)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errs.WrapKind("service.resolve", errs.ErrValidation, fmt.Errorf("unknown source %q", item.Source))
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

// IsUnknownGroup reports whether err was caused by a group without records.
func IsUnknownGroup(err error) bool {
	return errors.Is(err, ErrUnknownGroup)
}
