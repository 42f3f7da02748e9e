package service

import (
	"context"
	"encoding/json"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/tidwall/gjson"
)

// ListApplications returns one page of applications.
func (s *Service) ListApplications(ctx context.Context, p query.Params) (query.Result, error) {
	return s.list(ctx, "applications.list", model.Applications, p, nil)
}

// GetApplication returns an application by id.
func (s *Service) GetApplication(ctx context.Context, token string) (json.RawMessage, error) {
	return s.get(ctx, "applications.get", model.Applications, token)
}

// CreateApplication stores a new application. applied_at defaults to now.
// The referenced job and candidate are not checked.
func (s *Service) CreateApplication(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error) {
	if err := validate[model.Application](body); err != nil {
		return nil, err
	}
	return s.create(ctx, "applications.create", model.Applications, body, key, func(ctx context.Context, doc json.RawMessage) (json.RawMessage, error) {
		if v := gjson.GetBytes(doc, "applied_at"); v.Type != gjson.String || v.Str == "" {
			var err error
			if doc, err = setFields(doc, map[string]any{"applied_at": s.now().UTC()}); err != nil {
				return nil, err
			}
		}
		return s.openStage(ctx, doc)
	})
}

// ReplaceApplication swaps an application for body. stage_history is
// whatever body carries.
func (s *Service) ReplaceApplication(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Application](body); err != nil {
		return nil, err
	}
	return s.replace(ctx, "applications.replace", model.Applications, token, body, func(_, next json.RawMessage) (json.RawMessage, error) {
		return normalizeStage(next)
	})
}

// PatchApplication merges body into an application without recording
// history.
func (s *Service) PatchApplication(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Application](body); err != nil {
		return nil, err
	}
	return s.patch(ctx, "applications.update", model.Applications, token, body, normalizeStage)
}

// DeleteApplication removes an application.
func (s *Service) DeleteApplication(ctx context.Context, token string) error {
	return s.remove(ctx, "applications.delete", model.Applications, token)
}

// UpdateApplicationStage moves an application and appends to its history.
func (s *Service) UpdateApplicationStage(ctx context.Context, token, stage, notes string) (json.RawMessage, error) {
	return s.transition(ctx, "applications.stage", model.Applications, token, stage, notes)
}
