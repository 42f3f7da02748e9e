package fault

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

// Simulator runs calls the way an unreliable remote service would: after a
// delay, and sometimes not at all.
type Simulator struct {
	policy Policy
	log    logger.Logger
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithLogger sets the simulator logger.
func WithLogger(l logger.Logger) SimulatorOption {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSimulator creates a Simulator. A nil policy means NoFaults.
func NewSimulator(policy Policy, opts ...SimulatorOption) *Simulator {
	if policy == nil {
		policy = NoFaults{}
	}
	s := &Simulator{policy: policy, log: logger.GetOrNop().Named("fault")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do waits the policy latency, then either fails with ErrSimulated without
// calling fn, or returns fn's result. Failure is all-or-nothing.
func (s *Simulator) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	if d := s.policy.Latency(op); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
		metrics.RecordSimulatedLatency(op, float64(d.Milliseconds()))
	}

	if s.policy.ShouldFail(op) {
		metrics.RecordSimulatedFailure(op)
		metrics.RecordOperation(op, "simulated_failure")
		s.log.Debug(ctx, "simulated failure", logger.String("op", op))
		return fmt.Errorf("%s: %w", op, ErrSimulated)
	}

	if err := fn(ctx); err != nil {
		metrics.RecordOperation(op, "error")
		return err
	}
	metrics.RecordOperation(op, "ok")
	return nil
}
