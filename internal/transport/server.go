package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/nbodysim/server/internal/apierr"
	"github.com/nbodysim/server/internal/cache"
	"github.com/nbodysim/server/internal/logger"
	"github.com/nbodysim/server/internal/middleware"
	"github.com/nbodysim/server/internal/simulation"
	"github.com/nbodysim/server/internal/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxAddBodies bounds a single AddBodies frame so a malicious or buggy
// client can't force an unbounded allocation.
const maxAddBodies = 100000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the CORS middleware.
		return true
	},
}

// Server wires the Hub, the simulation, and the scheduler's mutex into an
// HTTP mux exposing /ws, /healthz and /metrics.
type Server struct {
	hub   *Hub
	sim   *simulation.Simulation
	mu    *sync.Mutex
	cache *cache.SnapshotCache

	ticked atomic.Bool
}

// NewServer builds a transport Server. mu must be the same mutex the
// scheduler takes around Simulation.Step, snapshotCache the same cache the
// scheduler publishes to every tick.
func NewServer(hub *Hub, sim *simulation.Simulation, mu *sync.Mutex, snapshotCache *cache.SnapshotCache) *Server {
	return &Server{hub: hub, sim: sim, mu: mu, cache: snapshotCache}
}

// MarkTicked records that the scheduler has completed at least one tick,
// which gates /healthz returning healthy.
func (s *Server) MarkTicked() {
	s.ticked.Store(true)
}

// Router builds the mux.Router exposing this server's endpoints behind the
// standard middleware chain.
func (s *Server) Router(rateLimiter *middleware.RateLimiter) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	r.Handle("/metrics", middleware.Gzip(promhttp.Handler())).Methods("GET")

	var handler http.Handler = r
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.CORS(nil)(handler)
	if rateLimiter != nil {
		handler = rateLimiter.Limit(handler)
	}
	handler = middleware.RecoverWithSentry(handler)
	handler = middleware.RequestID(handler)
	return handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.ticked.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade websocket connection", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.TransportUpgradeFailed(""))
		return
	}

	client := NewClient(s.hub, conn, s)
	client.Start()
}

// HandleClientMessage implements MessageHandler. It is invoked from the
// client's read pump goroutine, never while holding s.mu across I/O.
func (s *Server) HandleClientMessage(c *Client, msg wire.ClientMessage) {
	switch msg.Tag {
	case wire.TagSubscribe:
		// Registration already happened in Client.Start; nothing further
		// to do beyond an immediate snapshot so the client isn't blank
		// until the next tick.
		s.sendSnapshot(c)

	case wire.TagState:
		s.sendSnapshot(c)

	case wire.TagAddBodies:
		if len(msg.Bodies) > maxAddBodies {
			c.replyError(apierr.SimulationBodyLimit(maxAddBodies).Error())
			return
		}
		s.mu.Lock()
		s.sim.AddBodies(msg.Bodies)
		s.mu.Unlock()

	case wire.TagReset:
		s.mu.Lock()
		s.sim.Reset()
		s.mu.Unlock()

	default:
		c.replyError(apierr.WireUnknownTag(msg.Tag).Error())
	}
}

func (s *Server) sendSnapshot(c *Client) {
	if frame, ok := s.cache.Latest(); ok {
		c.Send(frame)
	}
}

// Run starts the hub's event loop; blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Hub exposes the underlying Hub for the scheduler's broadcast loop.
func (s *Server) Hub() *Hub { return s.hub }
