package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
)

// ApplicationsDependencies defines the application operations the handler
// calls.
type ApplicationsDependencies interface {
	ListApplications(ctx context.Context, p query.Params) (query.Result, error)
	GetApplication(ctx context.Context, token string) (json.RawMessage, error)
	CreateApplication(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error)
	ReplaceApplication(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	PatchApplication(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	DeleteApplication(ctx context.Context, token string) error
	UpdateApplicationStage(ctx context.Context, token, stage, notes string) (json.RawMessage, error)
}

// ApplicationsHandler handles /applications requests.
type ApplicationsHandler struct {
	deps ApplicationsDependencies
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps ApplicationsDependencies) *ApplicationsHandler {
	return &ApplicationsHandler{deps: deps}
}

// HandleList handles GET /applications.
func (h *ApplicationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ListApplications(r.Context(), listParams(r, model.Applications))
	if err != nil {
		writeError(w, r, Wrap("api.list_applications", err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleGet handles GET /applications/{id}.
func (h *ApplicationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_application", err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleCreate handles POST /applications.
func (h *ApplicationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_application"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.CreateApplication(r.Context(), body, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleReplace handles PUT /applications/{id}.
func (h *ApplicationsHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_application"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.ReplaceApplication(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandlePatch handles PATCH /applications/{id}.
func (h *ApplicationsHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.patch_application"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.PatchApplication(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /applications/{id}.
func (h *ApplicationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteApplication(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.delete_application", err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}

// HandleStage handles PUT /applications/{id}/stage.
func (h *ApplicationsHandler) HandleStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.application_stage"
	var req stageRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.UpdateApplicationStage(r.Context(), r.PathValue("id"), req.Stage, req.Notes)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
