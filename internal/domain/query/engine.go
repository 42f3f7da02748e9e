// Package query implements the search, filter, sort and paginate pipeline
// shared by every collection.
package query

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/types"
	"github.com/tidwall/gjson"
)

// AllValues is the filter value meaning "no constraint".
const AllValues = "all"

// Params is a caller's list request.
type Params struct {
	Page      int
	Limit     int
	Search    string
	Filters   map[string]string
	SortBy    string
	SortOrder string
}

// Descending reports whether the sort direction is descending.
func (p Params) Descending() bool {
	return strings.EqualFold(strings.TrimSpace(p.SortOrder), "desc")
}

// Result is one page of documents and its pagination.
type Result struct {
	Docs       []json.RawMessage
	Pagination types.Pagination
}

// Engine runs the pipeline with configured page limits.
type Engine struct {
	defaultLimit int
	maxLimit     int
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{defaultLimit: DefaultLimit, maxLimit: MaxLimit}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaultLimit > e.maxLimit {
		e.defaultLimit = e.maxLimit
	}
	return e
}

// Run applies search, filters, sort and pagination in that order.
// docs is not modified.
func (e *Engine) Run(docs []json.RawMessage, d Descriptor, p Params) Result {
	out := e.sorted(docs, d, p)

	page, limit := e.normalize(p.Page, p.Limit)
	pg := types.NewPagination(page, limit, len(out))
	start, end := types.Bounds(page, limit, len(out))
	data := make([]json.RawMessage, end-start)
	copy(data, out[start:end])
	return Result{Docs: data, Pagination: pg}
}

// sorted returns the full filtered and sorted sequence without paginating.
func (e *Engine) sorted(docs []json.RawMessage, d Descriptor, p Params) []json.RawMessage {
	out := search(docs, d, p.Search)
	out = filter(out, d, p.Filters)
	return e.order(out, d, p)
}

func (e *Engine) normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}
	return page, limit
}

func search(docs []json.RawMessage, d Descriptor, q string) []json.RawMessage {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return append([]json.RawMessage(nil), docs...)
	}
	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		if matchesSearch(doc, d.Searchable, q) {
			out = append(out, doc)
		}
	}
	return out
}

func matchesSearch(doc json.RawMessage, fields []string, q string) bool {
	if len(fields) == 0 {
		found := false
		gjson.ParseBytes(doc).ForEach(func(_, v gjson.Result) bool {
			found = containsFold(v, q)
			return !found
		})
		return found
	}
	for _, f := range fields {
		if containsFold(field(doc, f), q) {
			return true
		}
	}
	return false
}

func containsFold(v gjson.Result, q string) bool {
	if v.IsArray() {
		for _, el := range v.Array() {
			if containsFold(el, q) {
				return true
			}
		}
		return false
	}
	if v.Type == gjson.Null {
		return false
	}
	if v.IsObject() {
		found := false
		v.ForEach(func(_, val gjson.Result) bool {
			found = containsFold(val, q)
			return !found
		})
		return found
	}
	return strings.Contains(strings.ToLower(v.String()), q)
}

func filter(docs []json.RawMessage, d Descriptor, filters map[string]string) []json.RawMessage {
	active := make(map[string]string, len(filters))
	for k, v := range filters {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, AllValues) || !d.HasFilter(k) {
			continue
		}
		active[k] = v
	}
	if len(active) == 0 {
		return docs
	}
	out := docs[:0:0]
	for _, doc := range docs {
		ok := true
		for k, want := range active {
			if !equalsValue(field(doc, k), want) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out
}

func equalsValue(v gjson.Result, want string) bool {
	if v.IsArray() {
		for _, el := range v.Array() {
			if equalsValue(el, want) {
				return true
			}
		}
		return false
	}
	if !v.Exists() || v.Type == gjson.Null {
		return false
	}
	return strings.EqualFold(v.String(), want)
}

type keyed struct {
	doc json.RawMessage
	val gjson.Result
}

func (e *Engine) order(docs []json.RawMessage, d Descriptor, p Params) []json.RawMessage {
	if len(docs) < 2 {
		return docs
	}
	by, desc := p.SortBy, p.Descending()
	if !validField(by) {
		by, desc = defaultOrder(docs)
	}
	kind := kindFor(d, by)

	ks := make([]keyed, len(docs))
	for i, doc := range docs {
		ks[i] = keyed{doc: doc, val: field(doc, by)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return less(ks[i].val, ks[j].val, kind, desc)
	})
	out := make([]json.RawMessage, len(ks))
	for i, k := range ks {
		out[i] = k.doc
	}
	return out
}

// defaultOrder sorts by order ascending when every record carries a numeric
// order, otherwise newest first.
func defaultOrder(docs []json.RawMessage) (string, bool) {
	for _, doc := range docs {
		if field(doc, "order").Type != gjson.Number {
			return model.FieldCreatedAt, true
		}
	}
	return "order", false
}

func kindFor(d Descriptor, name string) Kind {
	if k, ok := d.SortHints[name]; ok {
		return k
	}
	if strings.Contains(name, "_at") || strings.Contains(name, "date") {
		return KindDate
	}
	return ""
}

// less orders present values by kind and direction; absent values always
// go last.
func less(a, b gjson.Result, kind Kind, desc bool) bool {
	aok, bok := present(a, kind), present(b, kind)
	switch {
	case !aok:
		return false
	case !bok:
		return true
	}
	c := compare(a, b, kind)
	if desc {
		return c > 0
	}
	return c < 0
}

func present(v gjson.Result, kind Kind) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return false
	}
	if kind == KindDate {
		_, ok := parseTime(v)
		return ok
	}
	return true
}

func compare(a, b gjson.Result, kind Kind) int {
	switch {
	case kind == KindDate:
		ta, _ := parseTime(a)
		tb, _ := parseTime(b)
		return ta.Compare(tb)
	case kind == KindString, kind == "" && (a.Type == gjson.String || b.Type == gjson.String):
		return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
	default:
		fa, fb := a.Float(), b.Float()
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} //nolint:gochecknoglobals // fixed list

func parseTime(v gjson.Result) (time.Time, bool) {
	if v.Type == gjson.Number {
		return time.UnixMilli(v.Int()), true
	}
	s := strings.TrimSpace(v.String())
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validField accepts plain top-level keys only, so caller input never
// reaches gjson path syntax.
func validField(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func field(doc json.RawMessage, name string) gjson.Result {
	return gjson.GetBytes(doc, name)
}
