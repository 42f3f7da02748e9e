package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
)

// listParams reads the shared list query string. Page and limit values
// that are not positive integers fall back to the defaults.
func listParams(r *http.Request, c model.Collection) query.Params {
	q := r.URL.Query()
	p := query.Params{
		Page:      positive(q.Get("page")),
		Limit:     positive(q.Get("limit")),
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    strings.TrimSpace(q.Get("sort_by")),
		SortOrder: q.Get("sort_order"),
	}
	for _, key := range query.For(c).Filters {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			if p.Filters == nil {
				p.Filters = make(map[string]string)
			}
			p.Filters[key] = v
		}
	}
	return p
}

func positive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
