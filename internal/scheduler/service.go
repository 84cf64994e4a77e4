// Package scheduler drives the simulation's fixed-rate tick loop: lock,
// step, copy the state, unlock, then encode, publish, broadcast — matching spec.md §5's single
// stepping goroutine with short-lived client-facing lock acquisitions.
package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/nbodysim/server/internal/cache"
	"github.com/nbodysim/server/internal/errorreporting"
	"github.com/nbodysim/server/internal/logger"
	"github.com/nbodysim/server/internal/metrics"
	"github.com/nbodysim/server/internal/simulation"
	"github.com/nbodysim/server/internal/tracing"
	"github.com/nbodysim/server/internal/wire"
	"go.opentelemetry.io/otel/attribute"
)

// Broadcaster is the narrow surface Service needs from transport.Hub,
// kept as an interface so this package doesn't import transport (transport
// already imports simulation; importing it back here would cycle).
type Broadcaster interface {
	Broadcast(frame []byte)
}

// TickObserver is notified once a tick has completed, letting the
// transport server's /healthz gate on "at least one tick has run".
type TickObserver interface {
	MarkTicked()
}

// Service owns the simulation clock: one ticker, one mutex shared with
// every client-facing handler that touches the Simulation.
type Service struct {
	mu   *sync.Mutex
	sim  *simulation.Simulation
	hub  Broadcaster
	snap *cache.SnapshotCache

	tickRate int
	stop     chan struct{}

	observer TickObserver
}

// NewService builds a scheduler driving sim at tickRate ticks/second,
// broadcasting each tick's encoded state through hub and publishing it to
// snap. mu must be the same mutex client-facing handlers (AddBodies, Reset)
// acquire before touching sim.
func NewService(mu *sync.Mutex, sim *simulation.Simulation, hub Broadcaster, snap *cache.SnapshotCache, tickRate int) *Service {
	return &Service{
		mu:       mu,
		sim:      sim,
		hub:      hub,
		snap:     snap,
		tickRate: tickRate,
		stop:     make(chan struct{}),
	}
}

// SetTickObserver registers a callback invoked after the first (and every
// subsequent) tick completes.
func (s *Service) SetTickObserver(o TickObserver) {
	s.observer = o
}

// Start begins the tick loop. Blocks until ctx is cancelled or Stop is
// called.
func (s *Service) Start(ctx context.Context) {
	interval := time.Second / time.Duration(s.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("starting simulation scheduler", "tick_rate", s.tickRate, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped by context")
			return
		case <-s.stop:
			logger.Info("scheduler stopped by signal")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop gracefully stops the scheduler.
func (s *Service) Stop() {
	close(s.stop)
}

// tick advances the simulation by one step and broadcasts the result.
// Recovers from panics as defense in depth: spec.md §7 asserts Step never
// fails for well-formed input, but a crafted AddBodies frame (e.g. a
// non-finite position) could violate that precondition, and a panic here
// must not take down the scheduler goroutine.
func (s *Service) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "panic recovered in simulation tick",
				"panic", r, "stack", string(debug.Stack()))
			if errorreporting.IsSentryEnabled() {
				errorreporting.CaptureMessage(errorreporting.ScrubPII(string(debug.Stack())), sentry.LevelError)
			}
		}
	}()

	ctx, span := tracing.StartSpan(ctx, "simulation.step")
	defer span.End()

	start := time.Now()
	var (
		bodyCount, collisions int
		msg                   wire.ServerMessage
	)
	func() {
		// Deferred so a panic in Step still releases the mutex for the
		// next tick and the client-facing handlers.
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sim.Step()
		bodyCount = s.sim.BodyCount()
		collisions = s.sim.LastCollisionCount()
		msg = wire.ServerMessage{
			Bodies:        s.sim.Bodies(),
			PhysicalTime:  s.sim.PhysicalTime(),
			KineticEnergy: s.sim.KineticEnergy(),
		}
	}()
	metrics.StepDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("body_count", bodyCount),
		attribute.Int("collision_count", collisions),
	)

	frame, err := wire.EncodeServerMessage(msg)
	if err != nil {
		metrics.WireCodecErrors.WithLabelValues("outbound").Inc()
		logger.ErrorContext(ctx, "failed to encode state update", "error", err)
		return
	}

	s.snap.Publish(frame)
	s.hub.Broadcast(frame)
	metrics.CollisionsTotal.Add(float64(collisions))

	if s.observer != nil {
		s.observer.MarkTicked()
	}
}
