// Package resolver turns caller-supplied tokens into stored records.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when neither the id nor the secondary key matches.
var ErrNotFound = errors.New("not found")

// Reader is the subset of the store the resolver needs.
type Reader interface {
	Get(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error)
	All(ctx context.Context, c model.Collection) ([]json.RawMessage, error)
}

// SlugField is the secondary key for jobs. Other collections have none.
const SlugField = "slug"

// SecondaryKey returns the secondary key field for c, or "".
func SecondaryKey(c model.Collection) string {
	if c == model.Jobs {
		return SlugField
	}
	return ""
}

// Resolver looks records up by id, then by secondary key.
type Resolver struct {
	store    Reader
	notFound func(error) bool
}

// New creates a Resolver. isNotFound classifies store misses.
func New(store Reader, isNotFound func(error) bool) *Resolver {
	return &Resolver{store: store, notFound: isNotFound}
}

// Resolve returns the record for token and its id.
func (r *Resolver) Resolve(ctx context.Context, c model.Collection, token string) (json.RawMessage, int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, 0, fmt.Errorf("%s: empty identifier: %w", c, ErrNotFound)
	}

	if id, ok := ParseID(token); ok {
		doc, err := r.store.Get(ctx, c, id)
		switch {
		case err == nil:
			return doc, id, nil
		case !r.notFound(err):
			return nil, 0, err
		}
	}

	key := SecondaryKey(c)
	if key == "" {
		return nil, 0, fmt.Errorf("%s/%s: %w", c, token, ErrNotFound)
	}
	docs, err := r.store.All(ctx, c)
	if err != nil {
		return nil, 0, err
	}
	for _, doc := range docs {
		if v := gjson.GetBytes(doc, key); v.Type == gjson.String && v.Str == token {
			return doc, gjson.GetBytes(doc, model.FieldID).Int(), nil
		}
	}
	return nil, 0, fmt.Errorf("%s/%s: %w", c, token, ErrNotFound)
}

// ParseID reports whether token is a purely numeric identifier.
func ParseID(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
