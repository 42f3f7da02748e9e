package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/scoring"
	"github.com/okian/talentflow/pkg/logger"
)

const jobIDField = "job_id"

// ListAssessments returns one page of assessments.
func (s *Service) ListAssessments(ctx context.Context, p query.Params) (query.Result, error) {
	return s.list(ctx, "assessments.list", model.Assessments, p, nil)
}

// AssessmentsForJob returns one page of the assessments attached to jobID.
func (s *Service) AssessmentsForJob(ctx context.Context, jobID int64, p query.Params) (query.Result, error) {
	return s.list(ctx, "assessments.for_job", model.Assessments, p, func(ctx context.Context) ([]json.RawMessage, error) {
		return s.relations.ByParent(ctx, model.Assessments, jobIDField, jobID)
	})
}

// CreateAssessment stores a new assessment.
func (s *Service) CreateAssessment(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error) {
	if err := validate[model.Assessment](body); err != nil {
		return nil, err
	}
	return s.create(ctx, "assessments.create", model.Assessments, body, key, nil)
}

// UpsertAssessmentForJob merges body into the job's first assessment, or
// creates one. The bool reports whether a record was created.
func (s *Service) UpsertAssessmentForJob(ctx context.Context, jobID int64, body json.RawMessage) (json.RawMessage, bool, error) {
	if err := validate[model.Assessment](body); err != nil {
		return nil, false, err
	}
	var (
		out     json.RawMessage
		created bool
	)
	err := s.call(ctx, "assessments.upsert", func(ctx context.Context) error {
		var err error
		out, created, err = s.relations.UpsertByParent(ctx, model.Assessments, jobIDField, jobID, body)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// GetAssessment returns an assessment by id.
func (s *Service) GetAssessment(ctx context.Context, token string) (json.RawMessage, error) {
	return s.get(ctx, "assessments.get", model.Assessments, token)
}

// PatchAssessment merges body into an assessment.
func (s *Service) PatchAssessment(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Assessment](body); err != nil {
		return nil, err
	}
	return s.patch(ctx, "assessments.update", model.Assessments, token, body, nil)
}

// ReplaceAssessment swaps an assessment for body.
func (s *Service) ReplaceAssessment(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Assessment](body); err != nil {
		return nil, err
	}
	return s.replace(ctx, "assessments.replace", model.Assessments, token, body, nil)
}

// DeleteAssessment removes an assessment. Its responses are kept.
func (s *Service) DeleteAssessment(ctx context.Context, token string) error {
	return s.remove(ctx, "assessments.delete", model.Assessments, token)
}

// DuplicateAssessment copies an assessment under a new id.
func (s *Service) DuplicateAssessment(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.call(ctx, "assessments.duplicate", func(ctx context.Context) error {
		_, id, err := s.resolver.Resolve(ctx, model.Assessments, token)
		if err != nil {
			return err
		}
		out, err = s.relations.Duplicate(ctx, model.Assessments, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// answerKey is the part of a stored assessment that grading reads.
type answerKey struct {
	ID        int64            `json:"id"`
	JobID     *int64           `json:"job_id"`
	Questions []model.Question `json:"questions"`
}

type submission struct {
	AssessmentID *int64         `json:"assessment_id"`
	CandidateID  int64          `json:"candidate_id"`
	Responses    map[string]any `json:"responses"`
	Score        *float64       `json:"score"`
	CompletedAt  string         `json:"completed_at"`
}

// SubmitAssessment stores a scored response for jobID. The assessment is
// the one named by assessment_id, or the job's first assessment. A named
// assessment attached to another job is rejected. Without an answer key
// the submitted score is kept, clamped to range.
func (s *Service) SubmitAssessment(ctx context.Context, jobID int64, body json.RawMessage, key string) (json.RawMessage, error) {
	in, err := bind[submission](body)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.idempotent(ctx, "assessments.submit", key, func() error {
		return s.call(ctx, "assessments.submit", func(ctx context.Context) error {
			assessment, err := s.assessmentFor(ctx, jobID, in.AssessmentID)
			if err != nil {
				return err
			}

			var questions []model.Question
			fields := map[string]any{jobIDField: jobID}
			if assessment != nil {
				a, err := decodeAs[answerKey](assessment)
				if err != nil {
					return err
				}
				if a.JobID != nil && *a.JobID != jobID {
					return fmt.Errorf("assessment %d belongs to job %d, not %d: %w", a.ID, *a.JobID, jobID, ErrInvalidInput)
				}
				questions = a.Questions
				fields["assessment_id"] = a.ID
			}

			res, err := s.scorer.Score(ctx, scoring.Input{Questions: questions, Responses: in.Responses, Submitted: in.Score})
			if err != nil {
				return err
			}
			fields["score"] = res.Score
			if in.Responses == nil {
				fields["responses"] = map[string]any{}
			}
			if in.CompletedAt == "" {
				fields["completed_at"] = s.now().UTC()
			}

			doc, err := setFields(body, fields)
			if err != nil {
				return err
			}
			out, err = s.store.Create(ctx, model.AssessmentResponses, doc)
			if err == nil {
				s.logger.Debug(ctx, "assessment submitted",
					logger.Int64("job_id", jobID),
					logger.Int64("candidate_id", in.CandidateID),
					logger.Float64("score", res.Score),
					logger.Int("correct", res.Correct),
					logger.Int("gradable", res.Gradable),
				)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// assessmentFor returns the named assessment, the job's first one, or nil
// when the job has none.
func (s *Service) assessmentFor(ctx context.Context, jobID int64, id *int64) (json.RawMessage, error) {
	if id != nil {
		doc, err := s.store.Get(ctx, model.Assessments, *id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("assessment %d: %w", *id, err)
		}
		return doc, err
	}
	docs, err := s.relations.ByParent(ctx, model.Assessments, jobIDField, jobID)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// ListResponses returns one page of assessment responses.
func (s *Service) ListResponses(ctx context.Context, p query.Params) (query.Result, error) {
	return s.list(ctx, "responses.list", model.AssessmentResponses, p, nil)
}

// GetResponse returns an assessment response by id.
func (s *Service) GetResponse(ctx context.Context, token string) (json.RawMessage, error) {
	return s.get(ctx, "responses.get", model.AssessmentResponses, token)
}

// DeleteResponse removes an assessment response.
func (s *Service) DeleteResponse(ctx context.Context, token string) error {
	return s.remove(ctx, "responses.delete", model.AssessmentResponses, token)
}
