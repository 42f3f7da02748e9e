package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
)

// ResponsesDependencies defines the assessment-response operations the
// handler calls.
type ResponsesDependencies interface {
	ListResponses(ctx context.Context, p query.Params) (query.Result, error)
	GetResponse(ctx context.Context, token string) (json.RawMessage, error)
	DeleteResponse(ctx context.Context, token string) error
}

// ResponsesHandler handles /assessment-responses requests.
type ResponsesHandler struct {
	deps ResponsesDependencies
}

// NewResponsesHandler creates a new responses handler.
func NewResponsesHandler(deps ResponsesDependencies) *ResponsesHandler {
	return &ResponsesHandler{deps: deps}
}

// HandleList handles GET /assessment-responses.
func (h *ResponsesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ListResponses(r.Context(), listParams(r, model.AssessmentResponses))
	if err != nil {
		writeError(w, r, Wrap("api.list_responses", err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleGet handles GET /assessment-responses/{id}.
func (h *ResponsesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.GetResponse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_response", err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /assessment-responses/{id}.
func (h *ResponsesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteResponse(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.delete_response", err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}
