// Package server wires the simulation, scheduler, metrics collector and
// transport layer together into one runnable process.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nbodysim/server/internal/cache"
	"github.com/nbodysim/server/internal/config"
	"github.com/nbodysim/server/internal/logger"
	"github.com/nbodysim/server/internal/metrics"
	"github.com/nbodysim/server/internal/middleware"
	"github.com/nbodysim/server/internal/scheduler"
	"github.com/nbodysim/server/internal/simulation"
	"github.com/nbodysim/server/internal/transport"
)

// metricsCollectInterval is how often the metrics Collector samples gauges
// that don't change on every tick's critical path (body count, quadtree
// depth, physical time, kinetic energy).
const metricsCollectInterval = 2 * time.Second

// snapshotCacheSizeMB bounds the ristretto snapshot cache; one simulation
// means one cached frame, so this only needs to be a few megabytes.
const snapshotCacheSizeMB = 16

// Server owns every long-lived component of the running process.
type Server struct {
	cfg *config.Config

	mu  *sync.Mutex
	sim *simulation.Simulation

	scheduler *scheduler.Service
	collector *metrics.Collector
	transport *transport.Server
	rateLimit *middleware.RateLimiter

	cache *cache.SnapshotCache
}

// New builds the wired-together server from cfg. The simulation starts
// empty; clients populate it via AddBodies.
func New(cfg *config.Config) (*Server, error) {
	mu := &sync.Mutex{}
	sim := simulation.New()
	sim.SetSolverParameters(simulation.SolverParameters{
		Dt:               cfg.SimDt,
		Theta:            cfg.SimTheta,
		QuadtreeCapacity: cfg.SimQuadtreeCapacity,
	})
	sim.SetPhysicsParameters(simulation.PhysicsParameters{
		GravityConstant: cfg.SimGravityConstant,
	})

	lru, err := cache.NewLRU(snapshotCacheSizeMB, 100, time.Minute)
	if err != nil {
		return nil, err
	}
	snapshotCache := cache.NewSnapshotCache(lru, time.Minute)

	hub := transport.NewHub()
	transportSrv := transport.NewServer(hub, sim, mu, snapshotCache)

	schedulerSvc := scheduler.NewService(mu, sim, hub, snapshotCache, cfg.SimTickRate)
	schedulerSvc.SetTickObserver(transportSrv)

	collector := metrics.NewCollector(mu, sim, metricsCollectInterval)

	rateLimiter := middleware.NewRateLimiter(50, 100, 2, 10)

	return &Server{
		cfg:       cfg,
		mu:        mu,
		sim:       sim,
		scheduler: schedulerSvc,
		collector: collector,
		transport: transportSrv,
		rateLimit: rateLimiter,
		cache:     snapshotCache,
	}, nil
}

// Start launches the scheduler tick loop, the metrics collector, and the
// hub's fan-out loop as background goroutines. The HTTP handler to serve
// comes from Handler.
func (s *Server) Start(ctx context.Context) {
	go s.scheduler.Start(ctx)
	go s.collector.Start(ctx)
	go s.transport.Run(ctx)
	logger.Info("simulation server started",
		"listen_addr", s.cfg.ListenAddr,
		"tick_rate", s.cfg.SimTickRate,
		"dt", s.cfg.SimDt,
		"theta", s.cfg.SimTheta,
	)
}

// Handler returns the fully wrapped HTTP handler mounting /ws, /healthz
// and /metrics.
func (s *Server) Handler() http.Handler {
	return s.transport.Router(s.rateLimit)
}

// Stop stops the scheduler and metrics collector and releases the
// snapshot cache.
func (s *Server) Stop() {
	s.scheduler.Stop()
	s.collector.Stop()
	s.rateLimit.Stop()
	s.cache.Close()
}
