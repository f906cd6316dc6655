package api

import (
	"context"
	"net/http"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
)

// RecordDependencies defines what POST /records needs.
type RecordDependencies interface {
	Submit(ctx context.Context, recordID string, r model.EventRecord) (service.Submission, error)
}

// RecordsHandler handles record ingestion.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	RecordID  string `json:"record_id"`
}

// HandlePostRecord handles POST /records. Accepted records are appended
// asynchronously; a duplicate record_id is acknowledged with 200.
func (h *RecordsHandler) HandlePostRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_record"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req recordRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	sub, err := h.deps.Submit(r.Context(), req.RecordID, req.record())
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, RecordID: sub.RecordID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RecordID: sub.RecordID})
}
