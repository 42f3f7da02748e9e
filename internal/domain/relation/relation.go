// Package relation joins across collections and derives aggregate counts.
package relation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/types"
	"github.com/tidwall/gjson"
)

// CopySuffix is appended to the title of a duplicated record.
const CopySuffix = " (Copy)"

// Store is the subset of the store the helper needs.
type Store interface {
	Get(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error)
	All(ctx context.Context, c model.Collection) ([]json.RawMessage, error)
	Create(ctx context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error)
}

// Helper runs cross-collection reads and writes.
type Helper struct {
	store Store
}

// New creates a Helper.
func New(store Store) *Helper {
	return &Helper{store: store}
}

// CandidatesForJob returns candidates with at least one application for
// jobID, in store order.
func (h *Helper) CandidatesForJob(ctx context.Context, jobID int64) ([]json.RawMessage, error) {
	apps, err := h.ByParent(ctx, model.Applications, "job_id", jobID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(apps))
	for _, a := range apps {
		ids[gjson.GetBytes(a, "candidate_id").Int()] = struct{}{}
	}

	all, err := h.store.All(ctx, model.Candidates)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(ids))
	for _, c := range all {
		if _, ok := ids[gjson.GetBytes(c, model.FieldID).Int()]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ByParent returns the records of c whose field equals parentID.
func (h *Helper) ByParent(ctx context.Context, c model.Collection, field string, parentID int64) ([]json.RawMessage, error) {
	all, err := h.store.All(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0)
	for _, doc := range all {
		if refersTo(doc, field, parentID) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func refersTo(doc json.RawMessage, field string, id int64) bool {
	v := gjson.GetBytes(doc, field)
	switch v.Type {
	case gjson.Number:
		return v.Int() == id
	case gjson.String:
		return v.Str == strconv.FormatInt(id, 10)
	default:
		return false
	}
}

// tally counts docs grouped by field in a single scan. Records without a
// string or numeric value for field are not counted.
func tally(docs []json.RawMessage, field string, normalize func(string) string) map[string]int {
	out := make(map[string]int)
	for _, doc := range docs {
		v := gjson.GetBytes(doc, field)
		if v.Type != gjson.String && v.Type != gjson.Number {
			continue
		}
		key := v.String()
		if normalize != nil {
			key = normalize(key)
		}
		out[key]++
	}
	return out
}

// Summary builds the dashboard counters.
func (h *Helper) Summary(ctx context.Context) (types.Stats, error) {
	all := make(map[model.Collection][]json.RawMessage, len(model.Collections))
	for _, c := range model.Collections {
		docs, err := h.store.All(ctx, c)
		if err != nil {
			return types.Stats{}, err
		}
		all[c] = docs
	}

	byStatus := tally(all[model.Jobs], "status", nil)
	s := types.Stats{
		TotalJobs:           len(all[model.Jobs]),
		ActiveJobs:          byStatus[string(model.JobActive)],
		TotalCandidates:     len(all[model.Candidates]),
		TotalApplications:   len(all[model.Applications]),
		TotalAssessments:    len(all[model.Assessments]),
		TotalResponses:      len(all[model.AssessmentResponses]),
		JobsByStatus:        byStatus,
		CandidatesByStage:   tally(all[model.Candidates], "stage", model.CanonicalStage),
		ApplicationsByStage: tally(all[model.Applications], "stage", model.CanonicalStage),
		AverageScore:        averageScore(all[model.AssessmentResponses]),
	}
	return s, nil
}

func averageScore(docs []json.RawMessage) float64 {
	var sum float64
	var n int
	for _, doc := range docs {
		if v := gjson.GetBytes(doc, "score"); v.Type == gjson.Number {
			sum += v.Float()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}

// Pipeline counts the applications of one job by canonical stage.
func (h *Helper) Pipeline(ctx context.Context, jobID int64) (types.Pipeline, error) {
	apps, err := h.ByParent(ctx, model.Applications, "job_id", jobID)
	if err != nil {
		return types.Pipeline{}, err
	}
	by := tally(apps, "stage", model.CanonicalStage)
	for _, st := range model.Stages {
		if _, ok := by[string(st)]; !ok {
			by[string(st)] = 0
		}
	}
	return types.Pipeline{JobID: jobID, Total: len(apps), ByStage: by}, nil
}

// Duplicate copies a record under a new id with CopySuffix on its title.
func (h *Helper) Duplicate(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error) {
	doc, err := h.store.Get(ctx, c, id)
	if err != nil {
		return nil, err
	}
	title := gjson.GetBytes(doc, "title").String()
	copied, err := withField(doc, "title", title+CopySuffix)
	if err != nil {
		return nil, err
	}
	return h.store.Create(ctx, c, copied)
}

// UpsertByParent merges doc into the first record of c whose field equals
// parentID, or creates one. The bool reports whether a record was created.
// Nothing stops a direct create from adding a second record for the parent.
func (h *Helper) UpsertByParent(ctx context.Context, c model.Collection, field string, parentID int64, doc json.RawMessage) (json.RawMessage, bool, error) {
	doc, err := withField(doc, field, parentID)
	if err != nil {
		return nil, false, err
	}
	matches, err := h.ByParent(ctx, c, field, parentID)
	if err != nil {
		return nil, false, err
	}
	if len(matches) > 0 {
		id := gjson.GetBytes(matches[0], model.FieldID).Int()
		out, err := h.store.Update(ctx, c, id, doc)
		return out, false, err
	}
	out, err := h.store.Create(ctx, c, doc)
	return out, err == nil, err
}

func withField(doc json.RawMessage, key string, value any) (json.RawMessage, error) {
	var f map[string]json.RawMessage
	if err := json.Unmarshal(doc, &f); err != nil || f == nil {
		return nil, ErrInvalidDocument
	}
	v, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	f[key] = v
	return json.Marshal(f)
}
