package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nbodysim/server/internal/logger"
	"github.com/nbodysim/server/internal/metrics"
	"github.com/nbodysim/server/internal/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait.
	pingPeriod = 30 * time.Second

	// Maximum message size accepted from a client. AddBodies frames carry
	// many 52-byte bodies plus gzip overhead, so this is sized generously
	// above the teacher's 512-byte JSON diff messages.
	maxMessageSize = 1 << 20
)

// MessageHandler processes a decoded client message for a given client.
// Implemented by Server so Client stays decoupled from simulation/scheduler
// wiring.
type MessageHandler interface {
	HandleClientMessage(c *Client, msg wire.ClientMessage)
}

// Client represents one subscribed WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler MessageHandler

	mu sync.Mutex
}

// NewClient wraps an upgraded WebSocket connection as a hub-registered
// client. Call Start to launch its pumps.
func NewClient(hub *Hub, conn *websocket.Conn, handler MessageHandler) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		handler: handler,
	}
}

// Start registers the client with the hub and launches its read/write
// pumps. Blocks until the read pump exits (i.e. until the connection
// closes), so callers typically invoke it in its own goroutine per
// connection — net/http already gives each upgraded connection one.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// Send enqueues a pre-encoded frame for this client only. Used to answer a
// State request without broadcasting to everyone else.
func (c *Client) Send(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		metrics.WebSocketMessagesReceived.Inc()

		msg, err := wire.DecodeClientMessage(data)
		if err != nil {
			metrics.WireCodecErrors.WithLabelValues("inbound").Inc()
			logger.Warn("failed to decode client frame", "error", err)
			c.replyError(err.Error())
			continue
		}

		c.handler.HandleClientMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.writeRaw(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeRaw(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeRaw(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeRaw serializes conn writes: the write pump and replyError (invoked
// from the read pump on a decode error) both write to the same connection,
// and gorilla/websocket forbids concurrent writers.
func (c *Client) writeRaw(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// replyError sends a plain-text error reply to this client only, per
// spec's InvalidFrame handling: the offending connection learns what went
// wrong, other clients and the scheduler are unaffected.
func (c *Client) replyError(message string) {
	c.writeRaw(websocket.TextMessage, []byte(message))
}
