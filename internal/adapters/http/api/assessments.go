package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
)

// AssessmentsDependencies defines the assessment operations the handler
// calls.
type AssessmentsDependencies interface {
	ListAssessments(ctx context.Context, p query.Params) (query.Result, error)
	AssessmentsForJob(ctx context.Context, jobID int64, p query.Params) (query.Result, error)
	CreateAssessment(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error)
	UpsertAssessmentForJob(ctx context.Context, jobID int64, body json.RawMessage) (json.RawMessage, bool, error)
	GetAssessment(ctx context.Context, token string) (json.RawMessage, error)
	ReplaceAssessment(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	PatchAssessment(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	DeleteAssessment(ctx context.Context, token string) error
	DuplicateAssessment(ctx context.Context, token string) (json.RawMessage, error)
	SubmitAssessment(ctx context.Context, jobID int64, body json.RawMessage, key string) (json.RawMessage, error)
}

// AssessmentsHandler handles /assessments requests. Routes under
// /assessments/{jobId} address a job; routes under /assessments/id/{id}
// address a single assessment.
type AssessmentsHandler struct {
	deps AssessmentsDependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps AssessmentsDependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

// HandleList handles GET /assessments.
func (h *AssessmentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ListAssessments(r.Context(), listParams(r, model.Assessments))
	if err != nil {
		writeError(w, r, Wrap("api.list_assessments", err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleCreate handles POST /assessments.
func (h *AssessmentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_assessment"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.CreateAssessment(r.Context(), body, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleForJob handles GET /assessments/{jobId}.
func (h *AssessmentsHandler) HandleForJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.job_assessments"
	jobID, err := pathID(r, "jobId", op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.AssessmentsForJob(r.Context(), jobID, listParams(r, model.Assessments))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleUpsert handles PUT /assessments/{jobId}.
func (h *AssessmentsHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_assessment"
	jobID, err := pathID(r, "jobId", op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, created, err := h.deps.UpsertAssessmentForJob(r.Context(), jobID, body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, doc)
}

// HandleSubmit handles POST /assessments/{jobId}/submit.
func (h *AssessmentsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
	jobID, err := pathID(r, "jobId", op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.SubmitAssessment(r.Context(), jobID, body, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleGet handles GET /assessments/id/{id}.
func (h *AssessmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.GetAssessment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_assessment", err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleReplace handles PUT /assessments/id/{id}.
func (h *AssessmentsHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_assessment"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.ReplaceAssessment(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandlePatch handles PATCH /assessments/id/{id}.
func (h *AssessmentsHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.patch_assessment"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.PatchAssessment(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /assessments/id/{id}.
func (h *AssessmentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteAssessment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.delete_assessment", err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}

// HandleDuplicate handles POST /assessments/id/{id}/duplicate.
func (h *AssessmentsHandler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.DuplicateAssessment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.duplicate_assessment", err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}
