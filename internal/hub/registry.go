package hub

import (
	"errors"
	"sync"
	"time"
)

// ErrDuplicateConnection means Register saw an id that already exists.
// Connection ids are freshly generated UUIDs, so this is a programming
// error, not a recoverable condition.
var ErrDuplicateConnection = errors.New("duplicate connection id")

// Registry is the process-wide map of live connections: by connection id
// and by owning user. Both maps are updated together under one lock so
// that every id in one resolves in the other.
type Registry struct {
	mu           sync.RWMutex
	byConnection map[string]*Connection
	byUser       map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byConnection: make(map[string]*Connection),
		byUser:       make(map[string]map[string]struct{}),
	}
}

// Register inserts the connection into both maps.
func (r *Registry) Register(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConnection[conn.ID]; exists {
		return ErrDuplicateConnection
	}
	r.byConnection[conn.ID] = conn

	if r.byUser[conn.UserID] == nil {
		r.byUser[conn.UserID] = make(map[string]struct{})
	}
	r.byUser[conn.UserID][conn.ID] = struct{}{}
	return nil
}

// Unregister removes the connection from both maps and returns the
// record plus the subscriptions it held, so the caller can unwind
// channel membership. A second call for the same id is a no-op;
// eviction races with clean disconnects and both paths must be
// idempotent.
func (r *Registry) Unregister(connectionID string) (*Connection, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byConnection[connectionID]
	if !ok {
		return nil, nil
	}
	delete(r.byConnection, connectionID)

	if ids, ok := r.byUser[conn.UserID]; ok {
		delete(ids, connectionID)
		if len(ids) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	return conn, conn.Subscriptions()
}

// Get looks up a connection by id.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byConnection[connectionID]
	return conn, ok
}

// ConnectionsOfUser returns all live connections for a user, one per
// active session/device. Empty slice when the user is offline.
func (r *Registry) ConnectionsOfUser(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(ids))
	for id := range ids {
		if conn, ok := r.byConnection[id]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

// TouchLiveness updates the liveness timestamp. No-op if the connection
// is already gone.
func (r *Registry) TouchLiveness(connectionID string, now time.Time) {
	r.mu.RLock()
	conn, ok := r.byConnection[connectionID]
	r.mu.RUnlock()
	if ok {
		conn.touch(now)
	}
}

// Stale returns the ids of connections whose liveness timestamp is older
// than the cutoff.
func (r *Registry) Stale(cutoff time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []string
	for id, conn := range r.byConnection {
		if conn.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

// ConnectionIDs returns a snapshot of every live connection id.
func (r *Registry) ConnectionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byConnection))
	for id := range r.byConnection {
		ids = append(ids, id)
	}
	return ids
}

// Counts reports the total connection count and the distinct user count.
func (r *Registry) Counts() (connections, users int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConnection), len(r.byUser)
}

// UserSessions reports how many live connections a user has and the most
// recent liveness timestamp across them. Zero value time when offline.
func (r *Registry) UserSessions(userID string) (active int, lastSeen time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.byUser[userID] {
		conn, ok := r.byConnection[id]
		if !ok {
			continue
		}
		active++
		if seen := conn.LastSeen(); seen.After(lastSeen) {
			lastSeen = seen
		}
	}
	return active, lastSeen
}
