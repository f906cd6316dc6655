package api

import (
	"context"
	"net/http"

	"github.com/okian/lifeline/internal/domain/model"
)

// CurveDependencies defines the estimators behind the curve endpoints.
type CurveDependencies interface {
	Survival(ctx context.Context, group string) (model.SurvivalCurve, error)
	Hazard(ctx context.Context, group string) (model.CumulativeHazardCurve, error)
}

// CurvesHandler serves non-parametric estimates of stored groups.
type CurvesHandler struct {
	deps CurveDependencies
}

// NewCurvesHandler creates a new curves handler.
func NewCurvesHandler(deps CurveDependencies) *CurvesHandler {
	return &CurvesHandler{deps: deps}
}

type survivalResponse struct {
	model.SurvivalCurve
	Median *float64 `json:"median,omitempty"`
}

// HandleGetSurvival handles GET /survival/{group}.
func (h *CurvesHandler) HandleGetSurvival(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	group, err := pathParam(r, "/survival/")
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	curve, err := h.deps.Survival(r.Context(), group)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	resp := survivalResponse{SurvivalCurve: curve}
	if m, ok := curve.Median(); ok {
		resp.Median = &m
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetHazard handles GET /hazard/{group}.
func (h *CurvesHandler) HandleGetHazard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	group, err := pathParam(r, "/hazard/")
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	curve, err := h.deps.Hazard(r.Context(), group)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, curve)
}
