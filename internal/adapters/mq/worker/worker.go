// Package worker drains the call queue and runs each call through the
// fault simulator.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentflow/internal/adapters/mq/queue"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 16 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Executor runs one call. The fault simulator satisfies it.
type Executor interface {
	Do(ctx context.Context, op string, fn func(context.Context) error) error
}

// Queue defines how workers receive calls.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *queue.Call
}

// Worker processes calls from the queue.
type Worker interface {
	// Run starts the worker loop until the queue closes or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current call.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	exec  Executor
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, exec Executor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		exec:     exec,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	calls := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case call, ok := <-calls:
			if !ok {
				return
			}
			w.process(call)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one call on its own detached context and always finishes it.
func (w *InMemoryWorker) process(call *queue.Call) {
	ctx := call.Ctx
	metrics.RecordCallQueueWait(float64(time.Since(call.Enqueued).Microseconds()) / 1000)
	metrics.IncWorkerBusy()
	defer metrics.DecWorkerBusy()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", call.Op, r)
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "call panicked", logger.String("op", call.Op), logger.Any("panic", r))
		}
		call.Finish(err)
	}()

	err = w.exec.Do(ctx, call.Op, call.Fn)
	if err != nil {
		w.logger.Debug(ctx, "call failed", logger.String("op", call.Op), logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, exec Executor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, exec, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain what is left.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
