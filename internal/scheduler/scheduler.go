package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
	"github.com/rh-john/ocp-eip-monitoring/internal/alerts"
	"github.com/rh-john/ocp-eip-monitoring/internal/collector"
	"github.com/rh-john/ocp-eip-monitoring/internal/registry"
)

// Phase names the scheduler's position in the cycle state machine.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCollecting  Phase = "collecting"
	PhaseAggregating Phase = "aggregating"
	PhasePublished   Phase = "published"
)

// Scheduler runs the collect → aggregate → publish cycle on a fixed
// interval. Cycles are strictly serial: a new one starts only after the
// previous one, including its failure handling, has completed. A failure in
// any stage is caught, counted, and logged; the loop never terminates
// because of a bad cycle.
type Scheduler struct {
	collector *collector.Collector
	engine    *aggregate.Engine
	registry  *registry.Registry
	alerts    *alerts.Engine // nil disables alerting
	interval  time.Duration
	now       func() time.Time

	phase atomic.Value // Phase
}

// New wires a Scheduler. alertEngine may be nil.
func New(c *collector.Collector, e *aggregate.Engine, r *registry.Registry, alertEngine *alerts.Engine, interval time.Duration) *Scheduler {
	s := &Scheduler{
		collector: c,
		engine:    e,
		registry:  r,
		alerts:    alertEngine,
		interval:  interval,
		now:       time.Now,
	}
	s.phase.Store(PhaseIdle)
	return s
}

// Phase returns the scheduler's current cycle phase.
func (s *Scheduler) Phase() Phase {
	return s.phase.Load().(Phase)
}

// Run executes one cycle immediately, then loops at the configured interval
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler: starting collection loop", "interval", s.interval)

	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler: collection loop stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one collect/aggregate/publish pass. Unexpected failures are
// absorbed here so the next tick always runs.
func (s *Scheduler) cycle(ctx context.Context) {
	start := s.now()

	defer func() {
		s.phase.Store(PhaseIdle)
		if r := recover(); r != nil {
			s.registry.CycleFailures.Inc()
			s.registry.ScrapeErrors.Inc()
			slog.Error("scheduler: cycle failed, continuing at next tick",
				"err", fmt.Sprintf("%v", r))
		}
	}()

	s.phase.Store(PhaseCollecting)
	snap := s.collector.Collect(ctx)

	s.phase.Store(PhaseAggregating)
	bundle := s.engine.Aggregate(snap, s.now())

	// Degraded cycles still publish: the health signal means "the loop is
	// alive", not "the data is perfect". They are counted separately so
	// operators can tell no-data cycles from healthy ones.
	if snap.Degraded {
		s.registry.DegradedCycles.Inc()
		s.registry.ScrapeErrors.Inc()
		slog.Warn("scheduler: cycle degraded", "inputs", snap.DegradedInputs)
	}

	s.registry.Publish(bundle)
	s.phase.Store(PhasePublished)

	elapsed := s.now().Sub(start)
	s.registry.CycleDuration.Set(elapsed.Seconds())

	if s.alerts != nil {
		s.alerts.Evaluate(bundle)
	}

	slog.Info("scheduler: cycle published",
		"configured", bundle.Configured,
		"assigned", bundle.Assigned,
		"unassigned", bundle.Unassigned,
		"cpic_success", bundle.CPICSuccess,
		"cpic_pending", bundle.CPICPending,
		"cpic_error", bundle.CPICError,
		"mismatches", bundle.MismatchTotal,
		"health", bundle.HealthScore,
		"duration", elapsed,
	)
}
