package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

type fields map[string]json.RawMessage

func decode(doc json.RawMessage) (fields, error) {
	var f fields
	if err := json.Unmarshal(doc, &f); err != nil || f == nil {
		return nil, ErrInvalidDocument
	}
	return f, nil
}

func (f fields) encode() (json.RawMessage, error) {
	b, err := json.Marshal(map[string]json.RawMessage(f))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// dropReserved removes store-owned keys from caller input.
func (f fields) dropReserved() fields {
	delete(f, model.FieldID)
	delete(f, model.FieldCreatedAt)
	delete(f, model.FieldUpdatedAt)
	return f
}

func (f fields) stamp(id int64, created json.RawMessage, updated time.Time) {
	f[model.FieldID] = json.RawMessage(strconv.FormatInt(id, 10))
	f[model.FieldCreatedAt] = created
	f[model.FieldUpdatedAt] = timestamp(updated)
}

func timestamp(t time.Time) json.RawMessage {
	return json.RawMessage(strconv.Quote(t.UTC().Format(time.RFC3339Nano)))
}

// newDocument prepares a create.
func newDocument(doc json.RawMessage, id int64, now time.Time) (json.RawMessage, error) {
	f, err := decode(doc)
	if err != nil {
		return nil, err
	}
	f.dropReserved().stamp(id, timestamp(now), now)
	return f.encode()
}

// mergeDocument applies patch keys over current.
func mergeDocument(current, patch json.RawMessage, now time.Time) (json.RawMessage, error) {
	p, err := decode(patch)
	if err != nil {
		return nil, err
	}
	f, err := decode(current)
	if err != nil {
		return nil, err
	}
	for k, v := range p.dropReserved() {
		f[k] = v
	}
	f[model.FieldUpdatedAt] = timestamp(now)
	return f.encode()
}

// replaceDocument keeps identity from current and the body from doc.
func replaceDocument(current, doc json.RawMessage, now time.Time) (json.RawMessage, error) {
	f, err := decode(doc)
	if err != nil {
		return nil, err
	}
	old, err := decode(current)
	if err != nil {
		return nil, err
	}
	var id int64
	if err := json.Unmarshal(old[model.FieldID], &id); err != nil {
		return nil, fmt.Errorf("stored id: %w", err)
	}
	f.dropReserved().stamp(id, old[model.FieldCreatedAt], now)
	return f.encode()
}

func checkCollection(c model.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	return nil
}
