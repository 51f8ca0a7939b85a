package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS middleware ahead of
		// the upgrade.
		return true
	},
}

// Conn is the subset of *websocket.Conn the pumps use, narrowed so tests
// can substitute a mock transport.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client runs the two per-connection I/O loops: the read pump feeding
// inbound frames to the hub and the write pump draining the delivery
// queue to the transport. It holds the transport; the Connection record
// itself belongs to the registry.
type Client struct {
	hub        *Hub
	conn       Conn
	connection *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(h *Hub, conn Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(h.ctx)
	client := &Client{
		hub:        h,
		conn:       conn,
		connection: newConnection(userID, h.opts.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
	client.connection.closeTransport = conn.Close
	return client
}

func (c *Client) close() {
	c.cancel()
	if err := c.conn.Close(); err != nil {
		slog.Debug("transport close", "connectionID", c.connection.ID, "error", err)
	}
}

// readPump reads frames off the transport until it fails, feeding valid
// ones to the hub dispatcher. Any inbound traffic, including
// transport-level pongs, counts as liveness.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-time.After(5 * time.Second):
			slog.Warn("timeout sending unregister", "connectionID", c.connection.ID)
		}
		if err := c.conn.Close(); err != nil {
			slog.Debug("transport close", "connectionID", c.connection.ID, "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.hub.registry.TouchLiveness(c.connection.ID, time.Now())
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket error", "connectionID", c.connection.ID, "error", err)
			} else {
				slog.Debug("websocket closed", "connectionID", c.connection.ID, "error", err)
			}
			break
		}

		c.hub.registry.TouchLiveness(c.connection.ID, time.Now())

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			// A bad frame should not kill an otherwise healthy
			// session; drop it and keep reading.
			slog.Warn("malformed frame dropped", "connectionID", c.connection.ID, "error", err)
			continue
		}
		if !msg.Type.IsValid() {
			slog.Warn("unknown message type dropped", "connectionID", c.connection.ID, "type", msg.Type)
			continue
		}
		msg.FromUser = c.connection.UserID

		select {
		case c.hub.inbound <- &inboundFrame{client: c, msg: &msg}:
		case <-time.After(5 * time.Second):
			slog.Warn("timeout handing frame to hub", "connectionID", c.connection.ID)
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump drains the delivery queue to the transport in FIFO order and
// keeps the transport alive with periodic pings. Per-connection ordering
// holds because this loop is the queue's only consumer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
	}()

	for {
		select {
		case frame, ok := <-c.connection.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue: drain is over.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Debug("write failed", "connectionID", c.connection.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "connectionID", c.connection.ID, "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// ServeWS upgrades an authenticated HTTP request to a websocket session
// and hands it to the hub.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "userID", userID, "error", err)
		return
	}

	client := newClient(h, conn, userID)
	slog.Info("websocket connection established",
		"connectionID", client.connection.ID, "userID", userID)

	select {
	case h.register <- client:
	case <-time.After(5 * time.Second):
		slog.Error("timeout registering connection", "connectionID", client.connection.ID)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
