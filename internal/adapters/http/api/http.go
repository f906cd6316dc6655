// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
	"github.com/okian/lifeline/pkg/errs"
	"github.com/okian/lifeline/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Submit queues a record; an empty recordID gets a fresh one.
	Submit(ctx context.Context, recordID string, r model.EventRecord) (service.Submission, error)

	Groups(ctx context.Context) []service.GroupSummary
	GroupRecords(ctx context.Context, group string) ([]model.EventRecord, error)

	Survival(ctx context.Context, group string) (model.SurvivalCurve, error)
	Hazard(ctx context.Context, group string) (model.CumulativeHazardCurve, error)
	Parametric(ctx context.Context, spec service.ParametricSpec) (model.ParametricCurve, error)
	Chart(ctx context.Context, req service.ChartRequest) (model.ComparativeChartSpec, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	recordsHandler    *RecordsHandler
	groupsHandler     *GroupsHandler
	curvesHandler     *CurvesHandler
	parametricHandler *ParametricHandler
	chartHandler      *ChartHandler
}

// Option configures NewServer.
type Option func(*serverConfig)

type serverConfig struct {
	maxDomainPoints int
}

// WithMaxDomainPoints caps the linspace size accepted by POST /parametric and POST /chart.
func WithMaxDomainPoints(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxDomainPoints = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxDomainPoints: 10_000}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		recordsHandler:    NewRecordsHandler(deps),
		groupsHandler:     NewGroupsHandler(deps),
		curvesHandler:     NewCurvesHandler(deps),
		parametricHandler: NewParametricHandler(deps, cfg.maxDomainPoints),
		chartHandler:      NewChartHandler(deps, cfg.maxDomainPoints),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/records", MetricsMiddleware(s.recordsHandler.HandlePostRecord, "records"))
	mux.HandleFunc("/groups", MetricsMiddleware(s.groupsHandler.HandleListGroups, "groups"))
	mux.HandleFunc("/groups/", MetricsMiddleware(s.groupsHandler.HandleGetGroup, "group"))
	mux.HandleFunc("/survival/", MetricsMiddleware(s.curvesHandler.HandleGetSurvival, "survival"))
	mux.HandleFunc("/hazard/", MetricsMiddleware(s.curvesHandler.HandleGetHazard, "hazard"))
	mux.HandleFunc("/parametric", MetricsMiddleware(s.parametricHandler.HandlePostParametric, "parametric"))
	mux.HandleFunc("/chart", MetricsMiddleware(s.chartHandler.HandlePostChart, "chart"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an error from the service or the domain to a status and code.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrUnknownGroup):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	}
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest, "validation_error"
	case errs.ErrInvalidParameter:
		return http.StatusBadRequest, "invalid_parameter"
	case errs.ErrEmptyInput:
		return http.StatusBadRequest, "empty_input"
	case errs.ErrEstimation:
		return http.StatusBadRequest, "estimation_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decodeJSON reads a single JSON object from r into v and runs its validator.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v interface{ Validate() error }) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(op, fmt.Errorf("%w: %w", ErrBadRequest, err))
	}
	if dec.More() {
		return errs.Wrap(op, fmt.Errorf("%w: trailing data after JSON object", ErrBadRequest))
	}
	if err := v.Validate(); err != nil {
		return errs.Wrap(op, fmt.Errorf("%w: %s", ErrBadRequest, describe(err)))
	}
	return nil
}

// pathParam returns the unescaped remainder of the path after prefix. An
// empty remainder is a bad request. Slashes inside the value must be escaped.
func pathParam(r *http.Request, prefix string) (string, error) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return "", fmt.Errorf("%w: expected %s{group}", ErrBadRequest, prefix)
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return v, nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
