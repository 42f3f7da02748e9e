package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/okian/talentflow/internal/domain/fault"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/types"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/tidwall/gjson"
)

// ListJobs returns one page of jobs.
func (s *Service) ListJobs(ctx context.Context, p query.Params) (query.Result, error) {
	return s.list(ctx, "jobs.list", model.Jobs, p, nil)
}

// GetJob resolves a job by id or slug.
func (s *Service) GetJob(ctx context.Context, token string) (json.RawMessage, error) {
	return s.get(ctx, "jobs.get", model.Jobs, token)
}

// CreateJob stores a new job. A job without an order is placed last and
// every job gets a slug built from its title and id.
func (s *Service) CreateJob(ctx context.Context, body json.RawMessage, key string) (json.RawMessage, error) {
	if err := validate[model.Job](body); err != nil {
		return nil, err
	}
	var out json.RawMessage
	err := s.idempotent(ctx, "jobs.create", key, func() error {
		return s.call(ctx, "jobs.create", func(ctx context.Context) error {
			doc := body
			if v := gjson.GetBytes(doc, "order"); v.Type != gjson.Number {
				last, err := s.lastOrder(ctx)
				if err != nil {
					return err
				}
				if doc, err = setFields(doc, map[string]any{"order": last + 1}); err != nil {
					return err
				}
			}
			created, err := s.store.Create(ctx, model.Jobs, doc)
			if err != nil {
				return err
			}
			id := idOf(created)
			slug := model.JobSlug(gjson.GetBytes(created, "title").String(), id)
			out, err = s.store.Update(ctx, model.Jobs, id, json.RawMessage(`{"slug":`+strconv.Quote(slug)+`}`))
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) lastOrder(ctx context.Context) (int64, error) {
	jobs, err := s.store.All(ctx, model.Jobs)
	if err != nil {
		return 0, err
	}
	var last int64
	for _, j := range jobs {
		if o := gjson.GetBytes(j, "order"); o.Type == gjson.Number && o.Int() > last {
			last = o.Int()
		}
	}
	return last, nil
}

// ReplaceJob swaps a job's content. The slug survives when body has none.
func (s *Service) ReplaceJob(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Job](body); err != nil {
		return nil, err
	}
	return s.replace(ctx, "jobs.replace", model.Jobs, token, body, func(current, next json.RawMessage) (json.RawMessage, error) {
		if gjson.GetBytes(next, "slug").String() != "" {
			return next, nil
		}
		return setFields(next, map[string]any{"slug": gjson.GetBytes(current, "slug").String()})
	})
}

// PatchJob merges body into a job.
func (s *Service) PatchJob(ctx context.Context, token string, body json.RawMessage) (json.RawMessage, error) {
	if err := validate[model.Job](body); err != nil {
		return nil, err
	}
	return s.patch(ctx, "jobs.update", model.Jobs, token, body, nil)
}

// DeleteJob removes a job. Its applications and assessments are kept.
func (s *Service) DeleteJob(ctx context.Context, token string) error {
	return s.remove(ctx, "jobs.delete", model.Jobs, token)
}

// ReorderJob moves a job to position to and shifts the jobs in between by
// one. from is echoed back; zero means the job's current order.
func (s *Service) ReorderJob(ctx context.Context, token string, from, to int) (model.ReorderResult, error) {
	if to < 1 {
		return model.ReorderResult{}, fmt.Errorf("%w: toOrder must be at least 1", ErrInvalidInput)
	}
	var res model.ReorderResult
	err := s.call(ctx, fault.OpReorderJobs, func(ctx context.Context) error {
		target, id, err := s.resolver.Resolve(ctx, model.Jobs, token)
		if err != nil {
			return err
		}
		cur := int(gjson.GetBytes(target, "order").Int())
		if err := s.shiftJobs(ctx, id, cur, to); err != nil {
			return err
		}
		if _, err := s.store.Update(ctx, model.Jobs, id, json.RawMessage(`{"order":`+strconv.Itoa(to)+`}`)); err != nil {
			return err
		}
		if from == 0 {
			from = cur
		}
		res = model.ReorderResult{Success: true, FromOrder: from, ToOrder: to}
		s.logger.Debug(ctx, "job reordered", logger.Int64("id", id), logger.Int("from", cur), logger.Int("to", to))
		return nil
	})
	if err != nil {
		return model.ReorderResult{}, err
	}
	return res, nil
}

// shiftJobs makes room at to for the job moving from cur. A job without
// an order is inserted, pushing everything at or after to down.
func (s *Service) shiftJobs(ctx context.Context, moving int64, cur, to int) error {
	if cur == to {
		return nil
	}
	jobs, err := s.store.All(ctx, model.Jobs)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		id := idOf(j)
		o := gjson.GetBytes(j, "order")
		if id == moving || o.Type != gjson.Number {
			continue
		}
		order := int(o.Int())
		next := order
		switch {
		case cur == 0 && order >= to:
			next = order + 1
		case cur > 0 && cur < to && order > cur && order <= to:
			next = order - 1
		case cur > to && order >= to && order < cur:
			next = order + 1
		}
		if next == order {
			continue
		}
		if _, err := s.store.Update(ctx, model.Jobs, id, json.RawMessage(`{"order":`+strconv.Itoa(next)+`}`)); err != nil {
			return err
		}
	}
	return nil
}

// JobPipeline counts a job's applications by stage.
func (s *Service) JobPipeline(ctx context.Context, token string) (types.Pipeline, error) {
	var out types.Pipeline
	err := s.call(ctx, "jobs.pipeline", func(ctx context.Context) error {
		_, id, err := s.resolver.Resolve(ctx, model.Jobs, token)
		if err != nil {
			return err
		}
		out, err = s.relations.Pipeline(ctx, id)
		return err
	})
	if err != nil {
		return types.Pipeline{}, err
	}
	return out, nil
}
