package api

import (
	"context"
	"net/http"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
)

// ChartDependencies builds comparative charts.
type ChartDependencies interface {
	Chart(ctx context.Context, req service.ChartRequest) (model.ComparativeChartSpec, error)
}

// ChartHandler handles POST /chart.
type ChartHandler struct {
	deps      ChartDependencies
	maxPoints int
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps ChartDependencies, maxPoints int) *ChartHandler {
	return &ChartHandler{deps: deps, maxPoints: maxPoints}
}

// HandlePostChart builds a ComparativeChartSpec; series follow the order of items.
func (h *ChartHandler) HandlePostChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_chart"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req chartRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	creq, err := req.request(h.maxPoints)
	if err != nil {
		writeFailure(r.Context(), w, errs.Wrap(op, err))
		return
	}
	spec, err := h.deps.Chart(r.Context(), creq)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}
