package api

import (
	"context"
	"net/http"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
)

// ParametricDependencies evaluates closed-form curves.
type ParametricDependencies interface {
	Parametric(ctx context.Context, spec service.ParametricSpec) (model.ParametricCurve, error)
}

// ParametricHandler handles POST /parametric.
type ParametricHandler struct {
	deps      ParametricDependencies
	maxPoints int
}

// NewParametricHandler creates a new parametric handler.
func NewParametricHandler(deps ParametricDependencies, maxPoints int) *ParametricHandler {
	return &ParametricHandler{deps: deps, maxPoints: maxPoints}
}

// HandlePostParametric evaluates a model over an explicit domain or a linspace.
func (h *ParametricHandler) HandlePostParametric(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_parametric"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req parametricRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	spec, err := req.spec(h.maxPoints)
	if err != nil {
		writeFailure(r.Context(), w, errs.Wrap(op, err))
		return
	}
	curve, err := h.deps.Parametric(r.Context(), spec)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, curve)
}
