package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrQueueFull        = errors.New("delivery queue full")
)

// Connection is one live session bound to exactly one user. The registry
// is its sole owner; the transport write loop only drains the delivery
// queue. Subscription state is mutated exclusively on the hub run loop,
// liveness from the read loop via the registry.
type Connection struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	// send is the per-connection delivery queue decoupling fan-out
	// from the transport write. Bounded; see enqueue for the
	// overflow policy.
	send chan []byte

	// closeTransport tears down the underlying socket; set by the
	// transport layer, nil for connections without one (tests).
	closeTransport func() error

	mu            sync.Mutex
	closed        bool
	lastSeen      time.Time
	subscriptions map[string]struct{}
}

func newConnection(userID string, queueSize int) *Connection {
	now := time.Now()
	return &Connection{
		ID:            uuid.New().String(),
		UserID:        userID,
		ConnectedAt:   now,
		send:          make(chan []byte, queueSize),
		lastSeen:      now,
		subscriptions: make(map[string]struct{}),
	}
}

// enqueue pushes an encoded frame onto the delivery queue. It never
// blocks the caller: when the queue is full the frame is dropped
// (drop-newest) and ErrQueueFull is returned. The heartbeat monitor is
// the backstop that reclaims clients that stay slow because they are
// dead.
func (c *Connection) enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// closeSend marks the connection closed and closes the delivery queue.
// Idempotent; frames still buffered are dropped by the write loop
// winding down.
func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Connection) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

// LastSeen returns the liveness timestamp, updated on connect and on any
// inbound traffic including transport-level pongs.
func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Connection) addSubscription(channel string) {
	c.mu.Lock()
	c.subscriptions[channel] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) removeSubscription(channel string) {
	c.mu.Lock()
	delete(c.subscriptions, channel)
	c.mu.Unlock()
}

func (c *Connection) hasSubscription(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// Subscriptions returns a snapshot copy of the channels this connection
// receives.
func (c *Connection) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	channels := make([]string, 0, len(c.subscriptions))
	for name := range c.subscriptions {
		channels = append(channels, name)
	}
	return channels
}
