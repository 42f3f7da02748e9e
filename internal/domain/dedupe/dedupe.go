// Package dedupe tracks idempotency keys so a retried create is applied once.
package dedupe

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Deduper records seen idempotency keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the caller may retry after a failed call.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// lruDeduper bounds memory by evicting the least recently seen key.
type lruDeduper struct {
	mu      sync.Mutex
	cache   *lru.Cache
	maxSize int // 0 or negative = unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &lruDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	entries := d.maxSize
	if entries < 0 {
		entries = 0
	}
	d.cache = lru.New(entries)
	return d
}

// SeenAndRecord implements Deduper.
func (d *lruDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Add(key, struct{}{})
	return false
}

// Unrecord implements Deduper.
func (d *lruDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Remove(key)
}

// Size returns the current number of keys held.
func (d *lruDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.cache.Len())
}
