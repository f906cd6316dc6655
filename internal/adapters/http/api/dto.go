package api

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/internal/domain/parametric"
)

// validate is shared by every request DTO. Initialized in init() with custom validators.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("finite", validateFinite)
}

// validateFinite rejects NaN and infinities.
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// recordRequest mirrors the OpenAPI schema for POST /records.
type recordRequest struct {
	RecordID      string   `json:"record_id" validate:"omitempty,max=128"`
	SubjectID     string   `json:"subject_id" validate:"max=256"`
	Time          *float64 `json:"time" validate:"required,finite"`
	EventObserved *bool    `json:"event_observed" validate:"required"`
	Group         string   `json:"group" validate:"required,max=256"`
}

// Validate checks the request shape. Domain rules (time >= 0, non-blank
// group) are enforced by the service so they surface as validation errors.
func (r *recordRequest) Validate() error {
	return validate.Struct(r)
}

func (r *recordRequest) record() model.EventRecord {
	return model.EventRecord{
		SubjectID:     r.SubjectID,
		Time:          *r.Time,
		EventObserved: *r.EventObserved,
		Group:         r.Group,
	}
}

type segmentDTO struct {
	Breakpoint float64 `json:"breakpoint" validate:"finite"`
	Slope      float64 `json:"slope" validate:"finite"`
	Intercept  float64 `json:"intercept" validate:"finite"`
}

type linspaceDTO struct {
	Start float64 `json:"start" validate:"finite"`
	Stop  float64 `json:"stop" validate:"finite"`
	Num   int     `json:"num" validate:"gt=0"`
}

// parametricRequest mirrors the OpenAPI schema for POST /parametric.
// Exactly one of Domain and Linspace must be given.
type parametricRequest struct {
	Group      string             `json:"group" validate:"max=256"`
	Kind       string             `json:"model_kind" validate:"required,max=64"`
	Parameters map[string]float64 `json:"parameters" validate:"omitempty,dive,finite"`
	Segments   []segmentDTO       `json:"segments" validate:"omitempty,dive"`
	Domain     []float64          `json:"domain" validate:"dive,finite"`
	Linspace   *linspaceDTO       `json:"linspace"`
}

func (r *parametricRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	return r.checkDomain()
}

func (r *parametricRequest) checkDomain() error {
	switch {
	case r.Linspace != nil && len(r.Domain) > 0:
		return errors.New("give either domain or linspace, not both")
	case r.Linspace == nil && len(r.Domain) == 0:
		return errors.New("one of domain or linspace is required")
	}
	return nil
}

// spec converts the request, expanding a linspace. maxPoints caps the
// expansion before any allocation happens.
func (r *parametricRequest) spec(maxPoints int) (service.ParametricSpec, error) {
	domain := r.Domain
	if r.Linspace != nil {
		if r.Linspace.Num > maxPoints {
			return service.ParametricSpec{}, fmt.Errorf("%w: linspace num %d exceeds %d", ErrBadRequest, r.Linspace.Num, maxPoints)
		}
		var err error
		domain, err = parametric.Linspace(r.Linspace.Start, r.Linspace.Stop, r.Linspace.Num)
		if err != nil {
			return service.ParametricSpec{}, err
		}
	}
	segments := make([]model.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = model.Segment{Breakpoint: s.Breakpoint, Slope: s.Slope, Intercept: s.Intercept}
	}
	return service.ParametricSpec{
		Group:  r.Group,
		Kind:   model.ModelKind(r.Kind),
		Params: parametric.Params{Values: r.Parameters, Segments: segments},
		Domain: domain,
	}, nil
}

type chartItemDTO struct {
	Source       string             `json:"source" validate:"required,oneof=kaplan_meier nelson_aalen parametric"`
	Group        string             `json:"group" validate:"required_unless=Source parametric,max=256"`
	Parametric   *parametricRequest `json:"parametric" validate:"required_if=Source parametric"`
	Style        map[string]string  `json:"style_hint"`
	Changepoints bool               `json:"changepoints"`
}

type markerDTO struct {
	X     float64 `json:"x" validate:"finite"`
	Label string  `json:"label" validate:"max=256"`
}

// chartRequest mirrors the OpenAPI schema for POST /chart.
type chartRequest struct {
	Title   string         `json:"title" validate:"max=256"`
	Items   []chartItemDTO `json:"items" validate:"dive"`
	Markers []markerDTO    `json:"markers" validate:"dive"`
}

func (r *chartRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	for i, it := range r.Items {
		if it.Parametric == nil {
			continue
		}
		if err := it.Parametric.checkDomain(); err != nil {
			return fmt.Errorf("items[%d].parametric: %w", i, err)
		}
	}
	return nil
}

func (r *chartRequest) request(maxPoints int) (service.ChartRequest, error) {
	out := service.ChartRequest{
		Title:   r.Title,
		Items:   make([]service.ChartItem, 0, len(r.Items)),
		Markers: make([]model.Marker, 0, len(r.Markers)),
	}
	for i, it := range r.Items {
		item := service.ChartItem{
			Source:       it.Source,
			Group:        it.Group,
			Style:        it.Style,
			Changepoints: it.Changepoints,
		}
		if it.Parametric != nil {
			spec, err := it.Parametric.spec(maxPoints)
			if err != nil {
				return service.ChartRequest{}, fmt.Errorf("item %d: %w", i, err)
			}
			item.Parametric = &spec
		}
		out.Items = append(out.Items, item)
	}
	for _, m := range r.Markers {
		out.Markers = append(out.Markers, model.Marker{X: m.X, Label: m.Label})
	}
	return out, nil
}
