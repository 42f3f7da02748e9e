// Package queue holds issued service calls until a worker picks them up.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/talentflow/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 4096
)

// Call is one issued operation. Once enqueued it always runs to
// completion: its context is detached from the caller's cancellation.
type Call struct {
	Op       string
	Fn       func(context.Context) error
	Ctx      context.Context //nolint:containedctx // carried to the worker that runs the call
	Enqueued time.Time

	done chan error
}

// NewCall wraps fn for enqueueing. Values on ctx stay visible to fn.
func NewCall(ctx context.Context, op string, fn func(context.Context) error) *Call {
	return &Call{
		Op:   op,
		Fn:   fn,
		Ctx:  context.WithoutCancel(ctx),
		done: make(chan error, 1),
	}
}

// Done delivers the call's result exactly once.
func (c *Call) Done() <-chan error { return c.done }

// Finish records the result. Only the first result is kept.
func (c *Call) Finish(err error) {
	select {
	case c.done <- err:
	default:
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a call to the queue.
	// Returns false if the queue is full or closed and the call was not enqueued.
	Enqueue(ctx context.Context, c *Call) bool

	// Dequeue returns a channel that yields calls until the queue is closed.
	Dequeue(ctx context.Context) <-chan *Call

	Len(ctx context.Context) int

	// Close stops accepting calls. Calls already queued are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	calls    chan *Call
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.calls = make(chan *Call, q.capacity)

	metrics.UpdateCallQueueCapacity(q.capacity)
	metrics.UpdateCallQueueSize(0)
	return q
}

// Enqueue adds a call to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c *Call) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	c.Enqueued = time.Now()
	select {
	case q.calls <- c:
		metrics.UpdateCallQueueSize(len(q.calls))
		return true
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan *Call {
	return q.calls
}

// Len returns the current number of queued calls.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.calls)
	metrics.UpdateCallQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.calls)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
