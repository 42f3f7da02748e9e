package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
)

// CandidatesDependencies defines the candidate operations the handler calls.
type CandidatesDependencies interface {
	ListCandidates(ctx context.Context, p query.Params, jobID int64) (query.Result, error)
	GetCandidate(ctx context.Context, token string) (json.RawMessage, error)
	CreateCandidate(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error)
	ReplaceCandidate(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	PatchCandidate(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error)
	DeleteCandidate(ctx context.Context, token string) error
	UpdateCandidateStage(ctx context.Context, token, stage, notes string) (json.RawMessage, error)
	BulkUpdateCandidates(ctx context.Context, updates []json.RawMessage) error
	ListNotes(ctx context.Context, token string) ([]model.Note, error)
	AddNote(ctx context.Context, token string, body json.RawMessage) (model.Note, error)
	Timeline(ctx context.Context, token string) ([]model.StageEntry, error)
}

// CandidatesHandler handles /candidates requests.
type CandidatesHandler struct {
	deps CandidatesDependencies
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps CandidatesDependencies) *CandidatesHandler {
	return &CandidatesHandler{deps: deps}
}

// HandleList handles GET /candidates. jobId scopes the list to one job's
// applicants.
func (h *CandidatesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	var jobID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("jobId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			writeError(w, r, NewKind(op, ErrBadRequest))
			return
		}
		jobID = id
	}
	res, err := h.deps.ListCandidates(r.Context(), listParams(r, model.Candidates), jobID)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writePage(w, res.Docs, res.Pagination)
}

// HandleGet handles GET /candidates/{id}.
func (h *CandidatesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_candidate", err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleCreate handles POST /candidates.
func (h *CandidatesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_candidate"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.CreateCandidate(r.Context(), body, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleReplace handles PUT /candidates/{id}.
func (h *CandidatesHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_candidate"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.ReplaceCandidate(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandlePatch handles PATCH /candidates/{id}.
func (h *CandidatesHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.patch_candidate"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.PatchCandidate(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /candidates/{id}.
func (h *CandidatesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteCandidate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.delete_candidate", err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}

type stageRequest struct {
	Stage string `json:"stage"`
	Notes string `json:"notes"`
}

// HandleStage handles PUT /candidates/{id}/stage.
func (h *CandidatesHandler) HandleStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.candidate_stage"
	var req stageRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.deps.UpdateCandidateStage(r.Context(), r.PathValue("id"), req.Stage, req.Notes)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleBulk handles PUT /candidates/bulk.
func (h *CandidatesHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_candidates"
	var updates []json.RawMessage
	if err := decodeBody(w, r, op, &updates); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.BulkUpdateCandidates(r.Context(), updates); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.Success{Success: true})
}

// HandleListNotes handles GET /candidates/{id}/notes.
func (h *CandidatesHandler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.deps.ListNotes(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.list_notes", err))
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleAddNote handles POST /candidates/{id}/notes.
func (h *CandidatesHandler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_note"
	body, err := readBody(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := h.deps.AddNote(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// HandleTimeline handles GET /candidates/{id}/timeline.
func (h *CandidatesHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Timeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.candidate_timeline", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
