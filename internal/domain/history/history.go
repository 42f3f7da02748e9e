// Package history records pipeline stage transitions on candidates and
// applications.
//
// A transition is a read-modify-write against the store with no locking:
// two concurrent transitions on the same record are last-writer-wins and
// the slower write can drop the faster one's entry.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/metrics"
	"github.com/tidwall/gjson"
)

// Field is the document key holding the history list.
const Field = "stage_history"

// ErrNoHistory is returned for collections that do not track stages.
var ErrNoHistory = errors.New("collection has no stage history")

// Store is the subset of the store the recorder needs.
type Store interface {
	Get(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error)
	Update(ctx context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error)
}

// Recorder appends stage entries.
type Recorder struct {
	store Store
	now   func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the time source for entry dates.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Recorder.
func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracks reports whether c carries a stage history.
func Tracks(c model.Collection) bool {
	return c == model.Candidates || c == model.Applications
}

// Transition sets the record's stage and appends one entry. Existing
// entries are written back byte for byte.
func (r *Recorder) Transition(ctx context.Context, c model.Collection, id int64, stage model.Stage, notes string) (json.RawMessage, error) {
	if !Tracks(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrNoHistory)
	}
	doc, err := r.store.Get(ctx, c, id)
	if err != nil {
		return nil, err
	}

	entries := existing(doc)
	entry, err := json.Marshal(model.StageEntry{Stage: stage, Date: r.now().UTC(), Notes: notes})
	if err != nil {
		return nil, fmt.Errorf("encode stage entry: %w", err)
	}
	entries = append(entries, entry)

	patch, err := json.Marshal(map[string]any{"stage": stage, Field: entries})
	if err != nil {
		return nil, fmt.Errorf("encode stage patch: %w", err)
	}
	out, err := r.store.Update(ctx, c, id, patch)
	if err != nil {
		return nil, err
	}
	metrics.RecordStageTransition(string(c), string(stage))
	return out, nil
}

// Initial seeds the first entry of a new record that has a stage but no
// history yet. Other documents are returned unchanged.
func (r *Recorder) Initial(doc json.RawMessage, notes string) (json.RawMessage, error) {
	stage := gjson.GetBytes(doc, "stage")
	if stage.Type != gjson.String || stage.Str == "" || len(existing(doc)) > 0 {
		return doc, nil
	}
	var f map[string]json.RawMessage
	if err := json.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	entry := model.StageEntry{Stage: model.Stage(stage.Str), Date: r.now().UTC(), Notes: notes}
	h, err := json.Marshal([]model.StageEntry{entry})
	if err != nil {
		return nil, fmt.Errorf("encode stage history: %w", err)
	}
	f[Field] = h
	return json.Marshal(f)
}

// Entries decodes the history of a stored document.
func Entries(doc json.RawMessage) ([]model.StageEntry, error) {
	out := make([]model.StageEntry, 0)
	h := gjson.GetBytes(doc, Field)
	if !h.IsArray() {
		return out, nil
	}
	if err := json.Unmarshal([]byte(h.Raw), &out); err != nil {
		return nil, fmt.Errorf("decode stage history: %w", err)
	}
	return out, nil
}

func existing(doc json.RawMessage) []json.RawMessage {
	h := gjson.GetBytes(doc, Field)
	if !h.IsArray() {
		return nil
	}
	items := h.Array()
	out := make([]json.RawMessage, len(items))
	for i, it := range items {
		out[i] = json.RawMessage(it.Raw)
	}
	return out
}
