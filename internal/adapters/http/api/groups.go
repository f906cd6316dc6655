package api

import (
	"context"
	"net/http"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/domain/model"
)

// GroupDependencies defines the read side of the record store.
type GroupDependencies interface {
	Groups(ctx context.Context) []service.GroupSummary
	GroupRecords(ctx context.Context, group string) ([]model.EventRecord, error)
}

// GroupsHandler serves group listings.
type GroupsHandler struct {
	deps GroupDependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps GroupDependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

type groupsResponse struct {
	Groups []service.GroupSummary `json:"groups"`
}

type groupRecordsResponse struct {
	Group   string              `json:"group"`
	Records []model.EventRecord `json:"records"`
}

// HandleListGroups handles GET /groups.
func (h *GroupsHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, groupsResponse{Groups: h.deps.Groups(r.Context())})
}

// HandleGetGroup handles GET /groups/{group}.
func (h *GroupsHandler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	group, err := pathParam(r, "/groups/")
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	records, err := h.deps.GroupRecords(r.Context(), group)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupRecordsResponse{Group: group, Records: records})
}
