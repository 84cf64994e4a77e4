// Package transport implements the WebSocket boundary of the simulator:
// a fan-out Hub, per-connection Client pumps, and an HTTP server that
// mounts the simulation socket alongside health and metrics endpoints.
package transport

import (
	"context"
	"sync"

	"github.com/nbodysim/server/internal/logger"
	"github.com/nbodysim/server/internal/metrics"
)

// Hub maintains the set of subscribed clients and fans out pre-encoded
// state-update frames to all of them. A client whose send buffer is full is
// dropped rather than allowed to block the broadcast of a frame to every
// other client.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates an empty Hub. Call Run to start its event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Broadcast queues frame for delivery to every registered client. It never
// blocks on a slow client; see Run.
func (h *Hub) Broadcast(frame []byte) {
	h.broadcast <- frame
}

// ClientCount returns the number of currently registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run starts the hub's event loop. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("client subscribed", "total_clients", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
			}
			h.mu.Unlock()

		case frame := <-h.broadcast:
			h.mu.Lock()
			sent := 0
			for client := range h.clients {
				select {
				case client.send <- frame:
					sent++
				default:
					// Send buffer full: drop this client instead of
					// blocking delivery to everyone else.
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.Unlock()
			if sent > 0 {
				metrics.WebSocketMessagesSent.Add(float64(sent))
			}
		}
	}
}
