package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrNotConnected     = errors.New("connection not found")
	ErrForbiddenChannel = errors.New("channel not allowed")
)

// Options tunes the hub. Zero values fall back to defaults.
type Options struct {
	// QueueSize bounds each connection's delivery queue.
	QueueSize int

	// HeartbeatInterval is the monitor sweep period.
	HeartbeatInterval time.Duration

	// EvictAfter is how stale a connection's liveness timestamp may get
	// before the monitor reclaims it. Defaults to 5x the sweep period.
	EvictAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 60 * time.Second
	}
	if o.EvictAfter <= 0 {
		o.EvictAfter = 5 * o.HeartbeatInterval
	}
	return o
}

// PresenceRecorder mirrors connect/disconnect transitions to an external
// presence store so online status survives being asked from outside the
// process. Failures are logged, never propagated.
type PresenceRecorder interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// inboundFrame pairs a parsed client frame with its origin connection.
type inboundFrame struct {
	client *Client
	msg    *Message
}

// Hub owns the connection registry and channel index, dispatches inbound
// client frames and fans out published messages. Lifecycle transitions
// (register, unregister, inbound dispatch, stale eviction) are
// serialized on the run loop; the publish paths only read snapshots and
// push onto per-connection queues, so producers never contend with the
// loop.
type Hub struct {
	registry *Registry
	index    *ChannelIndex

	register   chan *Client
	unregister chan *Client
	inbound    chan *inboundFrame

	presence PresenceRecorder

	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub. presence may be nil.
func NewHub(presence PresenceRecorder, opts Options) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		index:      NewChannelIndex(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *inboundFrame),
		presence:   presence,
		opts:       opts.withDefaults(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run drives the hub until Stop is called. Call it in its own goroutine.
func (h *Hub) Run() {
	sweep := time.NewTicker(h.opts.HeartbeatInterval)
	defer sweep.Stop()

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.removeConnection(client.connection.ID)

		case frame := <-h.inbound:
			h.dispatch(frame.client, frame.msg)

		case <-sweep.C:
			h.evictStale()

		case <-h.ctx.Done():
			slog.Info("hub shutting down")
			return
		}
	}
}

// Stop cancels the run loop and closes every live connection.
func (h *Hub) Stop() {
	h.cancel()
	ids := h.registry.ConnectionIDs()
	for _, id := range ids {
		h.removeConnection(id)
	}
	slog.Info("hub stopped", "closedConnections", len(ids))
}

func (h *Hub) handleRegister(client *Client) {
	conn := client.connection
	if err := h.registry.Register(conn); err != nil {
		// Fresh UUIDs cannot collide; a duplicate id is a bug.
		slog.Error("register failed", "connectionID", conn.ID, "error", err)
		client.close()
		return
	}

	// Every connection receives its owner's private streams without
	// asking.
	h.subscribeConnection(conn, UserNotificationsChannel(conn.UserID))
	h.subscribeConnection(conn, UserActivityChannel(conn.UserID))

	if err := h.deliver(conn, NewConnectMessage(conn.ID, conn.UserID)); err != nil {
		slog.Warn("connect ack not delivered", "connectionID", conn.ID, "error", err)
	}

	slog.Info("connection registered", "connectionID", conn.ID, "userID", conn.UserID)

	if h.presence != nil {
		go func() {
			if err := h.presence.SetUserOnline(h.ctx, conn.UserID); err != nil {
				slog.Error("presence update failed", "userID", conn.UserID, "error", err)
			}
		}()
	}
}

// removeConnection runs the Draining -> Closed transition: unregister
// from both registry maps, unwind every channel membership, drop
// whatever is still queued and close the transport. Safe to call twice;
// the second call finds nothing.
func (h *Hub) removeConnection(connectionID string) {
	conn, subscriptions := h.registry.Unregister(connectionID)
	if conn == nil {
		return
	}
	h.index.UnsubscribeAll(connectionID, subscriptions)
	conn.closeSend()
	if conn.closeTransport != nil {
		_ = conn.closeTransport()
	}

	slog.Info("connection closed", "connectionID", connectionID, "userID", conn.UserID,
		"subscriptions", len(subscriptions))

	if h.presence != nil {
		remaining, _ := h.registry.UserSessions(conn.UserID)
		if remaining == 0 {
			go func() {
				if err := h.presence.SetUserOffline(h.ctx, conn.UserID); err != nil {
					slog.Error("presence update failed", "userID", conn.UserID, "error", err)
				}
			}()
		}
	}
}

// dispatch routes one inbound client frame. Only ping, subscribe and
// unsubscribe are client-to-server; every other kind is server-to-client
// and gets dropped without closing the session.
func (h *Hub) dispatch(client *Client, msg *Message) {
	conn := client.connection

	switch msg.Type {
	case MessageTypePing:
		ts, _ := msg.Data["timestamp"].(string)
		if err := h.deliver(conn, NewPongMessage(ts)); err != nil {
			slog.Debug("pong not delivered", "connectionID", conn.ID, "error", err)
		}

	case MessageTypeSubscribe:
		requested := msg.ChannelList()
		accepted := make([]string, 0, len(requested))
		for _, channel := range requested {
			if !CanSubscribe(conn.UserID, channel) {
				slog.Warn("subscribe rejected", "connectionID", conn.ID,
					"userID", conn.UserID, "channel", channel)
				continue
			}
			h.subscribeConnection(conn, channel)
			accepted = append(accepted, channel)
		}
		if err := h.deliver(conn, NewSubscribeAckMessage(accepted)); err != nil {
			slog.Debug("subscribe ack not delivered", "connectionID", conn.ID, "error", err)
		}

	case MessageTypeUnsubscribe:
		// Leaving needs no authorization.
		removed := msg.ChannelList()
		for _, channel := range removed {
			h.unsubscribeConnection(conn, channel)
		}
		if err := h.deliver(conn, NewUnsubscribeAckMessage(removed)); err != nil {
			slog.Debug("unsubscribe ack not delivered", "connectionID", conn.ID, "error", err)
		}

	default:
		slog.Debug("inbound frame ignored", "connectionID", conn.ID, "type", msg.Type)
	}
}

// subscribeConnection updates the connection's subscription set and the
// channel index together.
func (h *Hub) subscribeConnection(conn *Connection, channel string) {
	conn.addSubscription(channel)
	h.index.Subscribe(conn.ID, channel)
	// The connection may have been evicted between the two updates;
	// re-check so the index holds no entry for a closed connection.
	if _, ok := h.registry.Get(conn.ID); !ok {
		h.index.Unsubscribe(conn.ID, channel)
	}
}

func (h *Hub) unsubscribeConnection(conn *Connection, channel string) {
	conn.removeSubscription(channel)
	h.index.Unsubscribe(conn.ID, channel)
}

// deliver marshals once and pushes onto a single connection's queue.
func (h *Hub) deliver(conn *Connection, msg *Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.enqueue(frame)
}

// SendToConnection delivers one message to one connection. An unknown id
// means the target went offline; callers fanning out should log and move
// on.
func (h *Hub) SendToConnection(connectionID string, msg *Message) error {
	conn, ok := h.registry.Get(connectionID)
	if !ok {
		return ErrNotConnected
	}
	return h.deliver(conn, msg)
}

// SendToUser delivers a message to every active session of the user and
// returns how many queues accepted it. Multi-device fan-out is
// intentional: each session gets its own copy. Zero deliveries simply
// means the user is offline.
func (h *Hub) SendToUser(userID string, msg *Message) int {
	frame, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal failed", "type", msg.Type, "error", err)
		return 0
	}

	delivered := 0
	for _, conn := range h.registry.ConnectionsOfUser(userID) {
		if err := conn.enqueue(frame); err != nil {
			slog.Warn("delivery failed", "connectionID", conn.ID, "userID", userID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// BroadcastToChannel fans a message out to a snapshot of the channel's
// subscribers. Recipient failures are isolated: one full or closed queue
// never aborts delivery to the rest, and there is no ordering guarantee
// across recipients.
func (h *Hub) BroadcastToChannel(channel string, msg *Message) int {
	frame, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal failed", "type", msg.Type, "error", err)
		return 0
	}

	delivered := 0
	for _, id := range h.index.Subscribers(channel) {
		conn, ok := h.registry.Get(id)
		if !ok {
			continue
		}
		if err := conn.enqueue(frame); err != nil {
			slog.Warn("delivery failed", "connectionID", id, "channel", channel, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// SubscribeUser adds the channel to every live session of the user,
// applying the same authorization gate as an in-band subscribe. Returns
// how many connections were subscribed.
func (h *Hub) SubscribeUser(userID, channel string) (int, error) {
	if !CanSubscribe(userID, channel) {
		return 0, ErrForbiddenChannel
	}
	conns := h.registry.ConnectionsOfUser(userID)
	for _, conn := range conns {
		h.subscribeConnection(conn, channel)
	}
	return len(conns), nil
}

// UnsubscribeUser removes the channel from every live session of the
// user. Leaving needs no authorization.
func (h *Hub) UnsubscribeUser(userID, channel string) int {
	conns := h.registry.ConnectionsOfUser(userID)
	for _, conn := range conns {
		h.unsubscribeConnection(conn, channel)
	}
	return len(conns)
}

// PublishToUser is the entry point business-event producers use for
// direct-addressed notifications.
func (h *Hub) PublishToUser(userID string, kind MessageType, payload map[string]interface{}) int {
	msg := NewMessage(kind, payload)
	msg.ToUser = userID
	return h.SendToUser(userID, msg)
}

// PublishToChannel is the entry point business-event producers use for
// channel-addressed notifications.
func (h *Hub) PublishToChannel(channel string, kind MessageType, payload map[string]interface{}) int {
	msg := NewMessage(kind, payload)
	msg.Channel = channel
	return h.BroadcastToChannel(channel, msg)
}
