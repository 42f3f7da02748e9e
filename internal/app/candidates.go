package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/talentflow/internal/domain/history"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/tidwall/gjson"
)

const noteLogField = "note_log"

// ListCandidates returns one page of candidates. A positive jobID limits
// the page to candidates who applied to that job.
func (s *Service) ListCandidates(ctx context.Context, p query.Params, jobID int64) (query.Result, error) {
	var source func(context.Context) ([]json.RawMessage, error)
	if jobID > 0 {
		source = func(ctx context.Context) ([]json.RawMessage, error) {
			return s.relations.CandidatesForJob(ctx, jobID)
		}
	}
	return s.list(ctx, "candidates.list", model.Candidates, p, source)
}

// GetCandidate returns a candidate by id.
func (s *Service) GetCandidate(ctx context.Context, token string) (json.RawMessage, error) {
	return s.get(ctx, "candidates.get", model.Candidates, token)
}

// CreateCandidate stores a new candidate. The stage defaults to applied and
// opens the stage history.
func (s *Service) CreateCandidate(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error) {
	if err := validate[model.Candidate](body); err != nil {
		return nil, err
	}
	return s.create(ctx, "candidates.create", model.Candidates, body, key, s.openStage)
}

// openStage prepares a new candidate or application.
func (s *Service) openStage(_ context.Context, doc json.RawMessage) (json.RawMessage, error) {
	if v := gjson.GetBytes(doc, "stage"); v.Type != gjson.String || v.Str == "" {
		var err error
		if doc, err = setFields(doc, map[string]any{"stage": model.StageApplied}); err != nil {
			return nil, err
		}
	}
	doc, err := normalizeStage(doc)
	if err != nil {
		return nil, err
	}
	return s.recorder.Initial(doc, "")
}

// ReplaceCandidate swaps a candidate's content. The history is not touched.
func (s *Service) ReplaceCandidate(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Candidate](body); err != nil {
		return nil, err
	}
	return s.replace(ctx, "candidates.replace", model.Candidates, token, body, func(_, next json.RawMessage) (json.RawMessage, error) {
		return normalizeStage(next)
	})
}

// PatchCandidate merges body into a candidate without recording history.
func (s *Service) PatchCandidate(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Candidate](body); err != nil {
		return nil, err
	}
	return s.patch(ctx, "candidates.update", model.Candidates, token, body, normalizeStage)
}

// DeleteCandidate removes a candidate.
func (s *Service) DeleteCandidate(ctx context.Context, token string) error {
	return s.remove(ctx, "candidates.delete", model.Candidates, token)
}

// UpdateCandidateStage moves a candidate and appends to its history.
func (s *Service) UpdateCandidateStage(ctx context.Context, token, stage, notes string) (json.RawMessage, error) {
	return s.transition(ctx, "candidates.stage", model.Candidates, token, stage, notes)
}

func (s *Service) transition(ctx context.Context, op string, c model.Collection, token, stage, notes string) (json.RawMessage, error) {
	st, err := model.ParseStage(stage)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.call(ctx, op, func(ctx context.Context) error {
		_, id, err := s.resolver.Resolve(ctx, c, token)
		if err != nil {
			return err
		}
		out, err = s.recorder.Transition(ctx, c, id, st, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BulkUpdateCandidates merges each update into the candidate named by its
// id. Nothing is applied unless every id exists.
func (s *Service) BulkUpdateCandidates(ctx context.Context, updates []json.RawMessage) error {
	ids := make([]int64, len(updates))
	for i, u := range updates {
		if err := validate[model.Candidate](u); err != nil {
			return fmt.Errorf("update %d: %w", i, err)
		}
		id := gjson.GetBytes(u, "id")
		if id.Type != gjson.Number || id.Int() < 1 {
			return fmt.Errorf("%w: update %d has no id", ErrInvalidInput, i)
		}
		ids[i] = id.Int()
	}
	return s.call(ctx, "candidates.bulk", func(ctx context.Context) error {
		for _, id := range ids {
			if _, err := s.store.Get(ctx, model.Candidates, id); err != nil {
				return err
			}
		}
		for i, u := range updates {
			patch, err := normalizeStage(u)
			if err != nil {
				return err
			}
			if _, err := s.store.Update(ctx, model.Candidates, ids[i], patch); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListNotes returns a candidate's notes, oldest first.
func (s *Service) ListNotes(ctx context.Context, token string) ([]model.Note, error) {
	var out []model.Note
	err := s.call(ctx, "candidates.notes.list", func(ctx context.Context) error {
		doc, _, err := s.resolver.Resolve(ctx, model.Candidates, token)
		if err != nil {
			return err
		}
		out, err = notesOf(doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type noteInput struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// AddNote appends a note to a candidate. @handles in the content are
// collected as mentions.
func (s *Service) AddNote(ctx context.Context, token string, body json.RawMessage) (model.Note, error) {
	in, err := bind[noteInput](body)
	if err != nil {
		return model.Note{}, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return model.Note{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	var note model.Note
	err = s.call(ctx, "candidates.notes.create", func(ctx context.Context) error {
		doc, id, err := s.resolver.Resolve(ctx, model.Candidates, token)
		if err != nil {
			return err
		}
		notes, err := notesOf(doc)
		if err != nil {
			return err
		}
		n := model.Note{
			ID:        uuid.NewString(),
			Content:   in.Content,
			Author:    in.Author,
			Mentions:  mentions(in.Content),
			CreatedAt: s.now().UTC(),
		}
		patch, err := json.Marshal(map[string]any{noteLogField: append(notes, n)})
		if err != nil {
			return fmt.Errorf("encode notes: %w", err)
		}
		if _, err := s.store.Update(ctx, model.Candidates, id, patch); err != nil {
			return err
		}
		note = n
		return nil
	})
	if err != nil {
		return model.Note{}, err
	}
	return note, nil
}

func notesOf(doc json.RawMessage) ([]model.Note, error) {
	out := make([]model.Note, 0)
	v := gjson.GetBytes(doc, noteLogField)
	if !v.IsArray() {
		return out, nil
	}
	if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return out, nil
}

// Timeline returns a candidate's stage history.
func (s *Service) Timeline(ctx context.Context, token string) ([]model.StageEntry, error) {
	var out []model.StageEntry
	err := s.call(ctx, "candidates.timeline", func(ctx context.Context) error {
		doc, _, err := s.resolver.Resolve(ctx, model.Candidates, token)
		if err != nil {
			return err
		}
		out, err = history.Entries(doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
