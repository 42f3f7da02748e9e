package relation

import (
	"context"

	"github.com/okian/talentflow/internal/domain/model"
)

// Tally exposes the per-field counter to tests.
func (h *Helper) Tally(ctx context.Context, c model.Collection, field string, normalize func(string) string) (map[string]int, error) {
	all, err := h.store.All(ctx, c)
	if err != nil {
		return nil, err
	}
	return tally(all, field, normalize), nil
}
