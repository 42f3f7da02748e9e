// Package repository persists JSON documents for the five collections.
package repository

import (
	"context"
	"encoding/json"

	"github.com/okian/talentflow/internal/domain/model"
)

// Store provides keyed document storage per collection.
//
// Documents are JSON objects. The store owns the id, created_at and
// updated_at keys; values supplied by callers for them are ignored.
type Store interface {
	// Create assigns the next id for the collection and timestamps the document.
	Create(ctx context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error)

	// Get returns ErrNotFound if no document has the id.
	Get(ctx context.Context, c model.Collection, id int64) (json.RawMessage, error)

	// Update merges the top-level keys of patch into the stored document.
	Update(ctx context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error)

	// Replace swaps the document body, keeping id and created_at.
	Replace(ctx context.Context, c model.Collection, id int64, doc json.RawMessage) (json.RawMessage, error)

	// Delete removes the document. Its id is never handed out again.
	Delete(ctx context.Context, c model.Collection, id int64) error

	// All returns every document ordered by id ascending.
	All(ctx context.Context, c model.Collection) ([]json.RawMessage, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, c model.Collection) (int, error)

	Close() error
}
