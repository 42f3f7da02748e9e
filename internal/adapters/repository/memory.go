package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/metrics"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[model.Collection]map[int64][]byte
	lastID map[model.Collection]int64
	settings
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		docs:     make(map[model.Collection]map[int64][]byte),
		lastID:   make(map[model.Collection]int64),
		settings: defaultSettings(),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	for _, c := range model.Collections {
		s.docs[c] = make(map[int64][]byte)
	}
	return s
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "create", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.lastID[c] + 1
	out, err := newDocument(doc, id, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.lastID[c] = id
	s.docs[c][id] = slices.Clone(out)
	count := len(s.docs[c])
	s.mu.Unlock()

	metrics.UpdateRecordsTotal(string(c), count)
	return out, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, c model.Collection, id int64) (json.RawMessage, error) {
	defer observe(c, "get", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[c][id]
	if !ok {
		return nil, notFound(c, id)
	}
	return slices.Clone(b), nil
}

// Update implements Store.Update.
func (s *MemoryStore) Update(_ context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "update", time.Now())
	return s.rewrite(c, id, func(cur []byte) (json.RawMessage, error) {
		return mergeDocument(cur, patch, s.now())
	})
}

// Replace implements Store.Replace.
func (s *MemoryStore) Replace(_ context.Context, c model.Collection, id int64, doc json.RawMessage) (json.RawMessage, error) {
	defer observe(c, "replace", time.Now())
	return s.rewrite(c, id, func(cur []byte) (json.RawMessage, error) {
		return replaceDocument(cur, doc, s.now())
	})
}

func (s *MemoryStore) rewrite(c model.Collection, id int64, fn func([]byte) (json.RawMessage, error)) (json.RawMessage, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[c][id]
	if !ok {
		return nil, notFound(c, id)
	}
	out, err := fn(cur)
	if err != nil {
		return nil, err
	}
	s.docs[c][id] = slices.Clone(out)
	return out, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, c model.Collection, id int64) error {
	defer observe(c, "delete", time.Now())
	if err := checkCollection(c); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.docs[c][id]; !ok {
		s.mu.Unlock()
		return notFound(c, id)
	}
	delete(s.docs[c], id)
	count := len(s.docs[c])
	s.mu.Unlock()

	metrics.UpdateRecordsTotal(string(c), count)
	return nil
}

// All implements Store.All.
func (s *MemoryStore) All(_ context.Context, c model.Collection) ([]json.RawMessage, error) {
	defer observe(c, "all", time.Now())
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.docs[c]))
	for id := range s.docs[c] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		out[i] = slices.Clone(s.docs[c][id])
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context, c model.Collection) (int, error) {
	if err := checkCollection(c); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[c]), nil
}

// Close is a no-op; the data lives as long as the process.
func (s *MemoryStore) Close() error { return nil }

func notFound(c model.Collection, id int64) error {
	metrics.RecordErrorByComponent("repository", "not_found")
	return fmt.Errorf("%w: %s/%d", ErrNotFound, c, id)
}

func observe(c model.Collection, action string, start time.Time) {
	metrics.RecordStoreLatency(string(c), action, float64(time.Since(start).Microseconds())/1000)
}
