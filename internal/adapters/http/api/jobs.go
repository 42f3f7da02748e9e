package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
)

// JobsDependencies defines the job operations the handler calls.
type JobsDependencies interface {
	ListJobs(ctx context.Context, p query.Params) (query.Result, error)
	GetJob(ctx context.Context, token string) (json.RawMessage, error)
	CreateJob(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error)
	ReplaceJob(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	PatchJob(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	DeleteJob(ctx context.Context, token string) error
	ReorderJob(ctx context.Context, token string, from, to int) (model.ReorderResult, error)
	JobPipeline(ctx context.Context, token string) (types.Pipeline, error)
}

// JobsHandler handles /jobs requests. Single-job routes accept an id or a
// slug.
type JobsHandler struct {
	deps JobsDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobsDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleList handles GET /jobs.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ListJobs(r.Context(), listParams(r, model.Jobs))
	if err != nil {
		writeError(w, r, Wrap("api.list_jobs", err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleGet handles GET /jobs/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_job", err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleCreate handles POST /jobs.
func (h *JobsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_job"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.CreateJob(r.Context(), body, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleReplace handles PUT /jobs/{id}.
func (h *JobsHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_job"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.ReplaceJob(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandlePatch handles PATCH /jobs/{id}.
func (h *JobsHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.patch_job"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.PatchJob(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /jobs/{id}.
func (h *JobsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.delete_job", err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}

type reorderRequest struct {
	FromOrder int `json:"fromOrder"`
	ToOrder   int `json:"toOrder"`
}

// HandleReorder handles PATCH /jobs/{id}/reorder.
func (h *JobsHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	const op = "api.reorder_job"
	var req reorderRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.ReorderJob(r.Context(), r.PathValue("id"), req.FromOrder, req.ToOrder)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePipeline handles GET /jobs/{id}/pipeline.
func (h *JobsHandler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.JobPipeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.job_pipeline", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
