// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/talentflow/internal/domain/types"
	"github.com/okian/talentflow/pkg/logger"
)

const (
	maxBodyBytes      = 1 << 20
	idempotencyHeader = "Idempotency-Key"
)

// Dependencies bundles every operation the handlers call. Each handler
// only sees the slice it needs.
type Dependencies interface {
	JobsDependencies
	CandidatesDependencies
	ApplicationsDependencies
	AssessmentsDependencies
	ResponsesDependencies
	DashboardProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	jobsHandler         *JobsHandler
	candidatesHandler   *CandidatesHandler
	applicationsHandler *ApplicationsHandler
	assessmentsHandler  *AssessmentsHandler
	responsesHandler    *ResponsesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(deps, statsProvider),
		jobsHandler:         NewJobsHandler(deps),
		candidatesHandler:   NewCandidatesHandler(deps),
		applicationsHandler: NewApplicationsHandler(deps),
		assessmentsHandler:  NewAssessmentsHandler(deps),
		responsesHandler:    NewResponsesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleDashboard)
	route("GET /stats/service", "stats_service", s.statsHandler.HandleServiceStats)

	jobs := s.jobsHandler
	route("GET /jobs", "jobs", jobs.HandleList)
	route("POST /jobs", "jobs", jobs.HandleCreate)
	route("GET /jobs/{id}", "job", jobs.HandleGet)
	route("PUT /jobs/{id}", "job", jobs.HandleReplace)
	route("PATCH /jobs/{id}", "job", jobs.HandlePatch)
	route("DELETE /jobs/{id}", "job", jobs.HandleDelete)
	route("PATCH /jobs/{id}/reorder", "job_reorder", jobs.HandleReorder)
	route("GET /jobs/{id}/pipeline", "job_pipeline", jobs.HandlePipeline)

	cands := s.candidatesHandler
	route("GET /candidates", "candidates", cands.HandleList)
	route("POST /candidates", "candidates", cands.HandleCreate)
	route("PUT /candidates/bulk", "candidates_bulk", cands.HandleBulk)
	route("GET /candidates/{id}", "candidate", cands.HandleGet)
	route("PUT /candidates/{id}", "candidate", cands.HandleReplace)
	route("PATCH /candidates/{id}", "candidate", cands.HandlePatch)
	route("DELETE /candidates/{id}", "candidate", cands.HandleDelete)
	route("PUT /candidates/{id}/stage", "candidate_stage", cands.HandleStage)
	route("GET /candidates/{id}/notes", "candidate_notes", cands.HandleListNotes)
	route("POST /candidates/{id}/notes", "candidate_notes", cands.HandleAddNote)
	route("GET /candidates/{id}/timeline", "candidate_timeline", cands.HandleTimeline)

	apps := s.applicationsHandler
	route("GET /applications", "applications", apps.HandleList)
	route("POST /applications", "applications", apps.HandleCreate)
	route("GET /applications/{id}", "application", apps.HandleGet)
	route("PUT /applications/{id}", "application", apps.HandleReplace)
	route("PATCH /applications/{id}", "application", apps.HandlePatch)
	route("DELETE /applications/{id}", "application", apps.HandleDelete)
	route("PUT /applications/{id}/stage", "application_stage", apps.HandleStage)

	as := s.assessmentsHandler
	route("GET /assessments", "assessments", as.HandleList)
	route("POST /assessments", "assessments", as.HandleCreate)
	route("GET /assessments/{jobId}", "job_assessments", as.HandleForJob)
	route("PUT /assessments/{jobId}", "job_assessments", as.HandleUpsert)
	route("POST /assessments/{jobId}/submit", "assessment_submit", as.HandleSubmit)
	route("GET /assessments/id/{id}", "assessment", as.HandleGet)
	route("PUT /assessments/id/{id}", "assessment", as.HandleReplace)
	route("PATCH /assessments/id/{id}", "assessment", as.HandlePatch)
	route("DELETE /assessments/id/{id}", "assessment", as.HandleDelete)
	route("POST /assessments/id/{id}/duplicate", "assessment_duplicate", as.HandleDuplicate)

	resp := s.responsesHandler
	route("GET /assessment-responses", "responses", resp.HandleList)
	route("GET /assessment-responses/{id}", "response", resp.HandleGet)
	route("DELETE /assessment-responses/{id}", "response", resp.HandleDelete)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err in the error envelope with the status it maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	w.Header().Set(errorCodeHeader, code)
	if status >= http.StatusInternalServerError && code != codeSimulatedFailure {
		logger.GetOrNop().Named("api").Error(r.Context(), "request failed",
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, types.ErrorBody{Error: code, Message: err.Error()})
}

// readBody returns the request body, bounded to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request, op string) (json.RawMessage, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if !json.Valid(b) {
		return nil, WrapKind(op, ErrBadRequest, errors.New("body is not valid JSON"))
	}
	return b, nil
}

// decodeBody reads the request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	b, err := readBody(w, r, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// writePage renders a list result in the list envelope.
func writePage(w http.ResponseWriter, docs []json.RawMessage, p types.Pagination) {
	if docs == nil {
		docs = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, types.Page[json.RawMessage]{Data: docs, Pagination: p})
}

func pathID(r *http.Request, name, op string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be a positive integer", name))
	}
	return id, nil
}
