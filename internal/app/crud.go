package service

import (
	"context"
	"encoding/json"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
)

// list runs the query pipeline over source, or over the whole collection
// when source is nil.
func (s *Service) list(ctx context.Context, op string, c model.Collection, p query.Params,
	source func(context.Context) ([]json.RawMessage, error),
) (query.Result, error) {
	var res query.Result
	err := s.call(ctx, op, func(ctx context.Context) error {
		var docs []json.RawMessage
		var err error
		if source != nil {
			docs, err = source(ctx)
		} else {
			docs, err = s.store.All(ctx, c)
		}
		if err != nil {
			return err
		}
		res = s.engine.Run(docs, query.For(c), p)
		return nil
	})
	if err != nil {
		return query.Result{}, err
	}
	return res, nil
}

func (s *Service) get(ctx context.Context, op string, c model.Collection, token string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.call(ctx, op, func(ctx context.Context) error {
		doc, _, err := s.resolver.Resolve(ctx, c, token)
		out = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// create stores doc after prepare has shaped it. An idempotency key makes
// a repeated create fail with ErrDuplicate.
func (s *Service) create(ctx context.Context, op string, c model.Collection, doc json.RawMessage, key string,
	prepare func(context.Context, json.RawMessage) (json.RawMessage, error),
) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.idempotent(ctx, op, key, func() error {
		return s.call(ctx, op, func(ctx context.Context) error {
			d := doc
			if prepare != nil {
				var err error
				if d, err = prepare(ctx, d); err != nil {
					return err
				}
			}
			created, err := s.store.Create(ctx, c, d)
			out = created
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// patch merges body into the record resolved from token.
func (s *Service) patch(ctx context.Context, op string, c model.Collection, token string, body json.RawMessage,
	prepare func(json.RawMessage) (json.RawMessage, error),
) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.call(ctx, op, func(ctx context.Context) error {
		_, id, err := s.resolver.Resolve(ctx, c, token)
		if err != nil {
			return err
		}
		d := body
		if prepare != nil {
			if d, err = prepare(d); err != nil {
				return err
			}
		}
		out, err = s.store.Update(ctx, c, id, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// replace swaps the record resolved from token for body.
func (s *Service) replace(ctx context.Context, op string, c model.Collection, token string, body json.RawMessage,
	prepare func(current, next json.RawMessage) (json.RawMessage, error),
) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.call(ctx, op, func(ctx context.Context) error {
		current, id, err := s.resolver.Resolve(ctx, c, token)
		if err != nil {
			return err
		}
		d := body
		if prepare != nil {
			if d, err = prepare(current, d); err != nil {
				return err
			}
		}
		out, err = s.store.Replace(ctx, c, id, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) remove(ctx context.Context, op string, c model.Collection, token string) error {
	return s.call(ctx, op, func(ctx context.Context) error {
		_, id, err := s.resolver.Resolve(ctx, c, token)
		if err != nil {
			return err
		}
		return s.store.Delete(ctx, c, id)
	})
}
