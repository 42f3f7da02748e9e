// Package service provides the hiring-pipeline operations behind the HTTP
// API. Every operation is issued as a call on the call queue and runs
// through the fault simulator before touching the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	callqueue "github.com/okian/talentflow/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentflow/internal/adapters/mq/worker"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/dedupe"
	"github.com/okian/talentflow/internal/domain/fault"
	"github.com/okian/talentflow/internal/domain/history"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/query"
	"github.com/okian/talentflow/internal/domain/relation"
	"github.com/okian/talentflow/internal/domain/resolver"
	"github.com/okian/talentflow/internal/domain/scoring"
	"github.com/okian/talentflow/internal/seed"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Store drivers accepted by WithStoreDriver.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Service implements the API dependencies for the hiring pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	deduper   dedupe.Deduper
	calls     *callqueue.InMemoryQueue
	pool      *workerpool.Pool
	sim       *fault.Simulator
	engine    *query.Engine
	resolver  *resolver.Resolver
	recorder  *history.Recorder
	relations *relation.Helper
	scorer    scoring.Scorer

	// Configuration
	policy         fault.Policy
	storeDriver    string
	storePath      string
	workerCount    int
	queueSize      int
	dedupeSize     int
	defaultLimit   int
	maxLimit       int
	seedOnStart    bool
	seedCandidates int
	now            func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a store. The service does not close injected stores.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the store the service opens on Start.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		if path != "" {
			s.storePath = path
		}
	}
}

// WithFaultPolicy sets the latency and failure policy for every call.
func WithFaultPolicy(p fault.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of calls waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPageLimits sets the default and maximum list page size.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithSeed seeds an empty store on Start.
func WithSeed(enabled bool, candidates int) Option {
	return func(s *Service) {
		s.seedOnStart = enabled
		if candidates > 0 {
			s.seedCandidates = candidates
		}
	}
}

// WithClock sets the time source for stage entries, notes and timestamps
// the service fills in.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:    DriverMemory,
		storePath:      "talentflow.db",
		workerCount:    runtime.NumCPU() * 16,
		queueSize:      4096,
		dedupeSize:     10_000,
		defaultLimit:   query.DefaultLimit,
		maxLimit:       query.MaxLimit,
		seedCandidates: seed.DefaultCandidates,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = fault.NewRandomPolicy()
	}
	return s
}

// Start opens the store, seeds it if asked, and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}
	s.logger.Info(ctx, "starting talentflow service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store, s.ownsStore = store, true
	}

	if s.seedOnStart {
		if err := s.seed(ctx); err != nil {
			s.closeOwnedStore()
			return err
		}
	}

	isNotFound := func(err error) bool { return errors.Is(err, repository.ErrNotFound) }
	s.engine = query.New(query.WithDefaultLimit(s.defaultLimit), query.WithMaxLimit(s.maxLimit))
	s.resolver = resolver.New(s.store, isNotFound)
	s.recorder = history.New(s.store, history.WithClock(s.now))
	s.relations = relation.New(s.store)
	s.scorer = scoring.NewAnswerKeyScorer()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.sim = fault.NewSimulator(s.policy, fault.WithLogger(s.logger.Named("fault")))
	s.calls = callqueue.NewInMemoryQueue(callqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.calls, s.sim)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "talentflow service started",
		logger.String("store", s.storeDriver),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.storeDriver {
	case DriverMemory:
		return repository.NewMemoryStore(repository.WithClock(s.now)), nil
	case DriverSQLite:
		store, err := repository.OpenSQLite(ctx, s.storePath, repository.WithClock(s.now))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", ErrInvalidInput, s.storeDriver)
	}
}

func (s *Service) seed(ctx context.Context) error {
	n, err := s.store.Count(ctx, model.Jobs)
	if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "store already populated, skipping seed", logger.Int("jobs", n))
		return nil
	}
	counts, err := seed.Run(ctx, s.store, seed.WithCandidates(s.seedCandidates), seed.WithClock(s.now))
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	s.logger.Info(ctx, "seeded store",
		logger.Int("jobs", counts.Jobs),
		logger.Int("candidates", counts.Candidates),
		logger.Int("applications", counts.Applications),
		logger.Int("assessments", counts.Assessments),
	)
	return nil
}

// Stop drains issued calls and closes the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping talentflow service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.closeOwnedStore()

	s.started = false
	s.logger.Info(ctx, "talentflow service stopped")
}

func (s *Service) closeOwnedStore() {
	if s.ownsStore && s.store != nil {
		_ = s.store.Close()
		s.store, s.ownsStore = nil, false
	}
}

// call issues fn as one simulated remote call and waits for its result.
// If ctx ends first the call keeps running; only the wait is abandoned.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	s.mu.RLock()
	started, calls := s.started, s.calls
	s.mu.RUnlock()
	if !started {
		return fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	c := callqueue.NewCall(ctx, op, fn)
	if !calls.Enqueue(ctx, c) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if calls.IsClosed() {
			return fmt.Errorf("%s: %w", op, ErrNotStarted)
		}
		metrics.RecordErrorByComponent("service", "backpressure")
		return fmt.Errorf("%s: %w", op, ErrBackpressure)
	}

	select {
	case err := <-c.Done():
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// idempotent runs create under key. A seen key fails with ErrDuplicate; a
// failed create forgets the key so the caller may retry.
func (s *Service) idempotent(ctx context.Context, op, key string, create func() error) error {
	if key == "" {
		return create()
	}
	scoped := op + ":" + key
	if s.deduper.SeenAndRecord(ctx, scoped) {
		metrics.RecordIdempotentDuplicate()
		s.logger.Debug(ctx, "duplicate idempotency key", logger.String("op", op), logger.String("key", key))
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	if err := create(); err != nil {
		s.deduper.Unrecord(ctx, scoped)
		return err
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"store":       s.storeDriver,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.calls.Len(ctx)
	stats["idempotencyKeys"] = s.deduper.Size()
	records := make(map[string]int, len(model.Collections))
	for _, c := range model.Collections {
		if n, err := s.store.Count(ctx, c); err == nil {
			records[string(c)] = n
			metrics.UpdateRecordsTotal(string(c), n)
		}
	}
	stats["records"] = records
	return stats
}
