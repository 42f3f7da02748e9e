// Package fault wraps operations with simulated network latency and failure.
package fault

import (
	"math/rand"
	"sync"
	"time"
)

// Default fault configuration constants.
const (
	DefaultMinLatency   = 200 * time.Millisecond
	DefaultMaxLatency   = 1200 * time.Millisecond
	DefaultFailureRate  = 0.075
	ReorderFailureRate  = 0.10
	defaultRandomSeed   = 42
	OpReorderJobs       = "jobs.reorder"
	maxFailureRateValue = 1
)

// Policy decides how long a call waits and whether it fails.
type Policy interface {
	Latency(op string) time.Duration
	ShouldFail(op string) bool
}

// NoFaults never delays and never fails.
type NoFaults struct{}

// Latency implements Policy.
func (NoFaults) Latency(string) time.Duration { return 0 }

// ShouldFail implements Policy.
func (NoFaults) ShouldFail(string) bool { return false }

// Option applies a configuration option to the RandomPolicy.
type Option func(*RandomPolicy)

// WithLatencyRange sets the uniform latency bounds. Zero bounds disable the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(p *RandomPolicy) {
		if minLatency >= 0 && maxLatency >= minLatency {
			p.minLatency = minLatency
			p.maxLatency = maxLatency
		}
	}
}

// WithFailureRate sets the probability applied to ops without an override.
func WithFailureRate(rate float64) Option {
	return func(p *RandomPolicy) {
		if validRate(rate) {
			p.rate = rate
		}
	}
}

// WithOpFailureRate overrides the failure probability of one op.
func WithOpFailureRate(op string, rate float64) Option {
	return func(p *RandomPolicy) {
		if validRate(rate) {
			p.overrides[op] = rate
		}
	}
}

// WithSeed seeds the generator. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(p *RandomPolicy) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		p.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
	}
}

func validRate(rate float64) bool {
	return rate >= 0 && rate <= maxFailureRateValue
}

// RandomPolicy draws latency uniformly and fails with a per-op probability.
type RandomPolicy struct {
	mu         sync.Mutex
	rng        *rand.Rand
	minLatency time.Duration
	maxLatency time.Duration
	rate       float64
	overrides  map[string]float64
}

// NewRandomPolicy creates a policy with the default distribution and an
// elevated failure rate for job reordering.
func NewRandomPolicy(opts ...Option) *RandomPolicy {
	p := &RandomPolicy{
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible runs
		minLatency: DefaultMinLatency,
		maxLatency: DefaultMaxLatency,
		rate:       DefaultFailureRate,
		overrides:  map[string]float64{OpReorderJobs: ReorderFailureRate},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Latency implements Policy.
func (p *RandomPolicy) Latency(string) time.Duration {
	span := p.maxLatency - p.minLatency
	if span <= 0 {
		return p.minLatency
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minLatency + time.Duration(p.rng.Int63n(int64(span)+1))
}

// ShouldFail implements Policy.
func (p *RandomPolicy) ShouldFail(op string) bool {
	rate := p.Rate(op)
	if rate <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < rate
}

// Rate returns the failure probability applied to op.
func (p *RandomPolicy) Rate(op string) float64 {
	if r, ok := p.overrides[op]; ok {
		return r
	}
	return p.rate
}
