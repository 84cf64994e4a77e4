package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/nbodysim/server/internal/simulation"
)

// Collector periodically samples a running Simulation and updates the
// Prometheus gauges that Step itself has no good place to update (Step
// runs under the scheduler's mutex and shouldn't pay for a Prometheus
// write on every tick at high tick rates; a slower poller amortizes it).
// It takes mu for the duration of each sample, the same mutex the
// scheduler takes around Step, so reads never race the stepping goroutine.
type Collector struct {
	mu       *sync.Mutex
	sim      *simulation.Simulation
	interval time.Duration
	stop     chan struct{}
}

// NewCollector creates a new metrics collector polling sim every interval,
// guarded by mu.
func NewCollector(mu *sync.Mutex, sim *simulation.Simulation, interval time.Duration) *Collector {
	return &Collector{
		mu:       mu,
		sim:      sim,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop. Blocks until ctx is cancelled
// or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector.
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	BodiesTotal.Set(float64(c.sim.BodyCount()))
	QuadtreeDepth.Set(float64(c.sim.QuadtreeDepth()))
	PhysicalTimeSeconds.Set(c.sim.PhysicalTime())
	KineticEnergy.Set(c.sim.KineticEnergy())
}
