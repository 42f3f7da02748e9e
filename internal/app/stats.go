package service

import (
	"context"

	"github.com/okian/talentflow/internal/domain/types"
)

// Dashboard returns the aggregate counters shown on the dashboard.
func (s *Service) Dashboard(ctx context.Context) (types.Stats, error) {
	var out types.Stats
	err := s.call(ctx, "stats.get", func(ctx context.Context) error {
		var err error
		out, err = s.relations.Summary(ctx)
		return err
	})
	if err != nil {
		return types.Stats{}, err
	}
	return out, nil
}
