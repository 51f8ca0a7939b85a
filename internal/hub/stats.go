package hub

import "time"

// StatsSnapshot is a point-in-time view of hub load. Each structure is
// read under its own lock, so the counts are individually accurate but
// not a cross-structure transaction.
type StatsSnapshot struct {
	Connections int            `json:"connections"`
	Users       int            `json:"users"`
	Channels    map[string]int `json:"channels"`
}

// Stats aggregates connection, user and per-channel subscriber counts.
func (h *Hub) Stats() StatsSnapshot {
	connections, users := h.registry.Counts()
	return StatsSnapshot{
		Connections: connections,
		Users:       users,
		Channels:    h.index.ChannelCounts(),
	}
}

// UserStatus describes one user's live presence as seen by this hub.
type UserStatus struct {
	UserID            string    `json:"user_id"`
	IsOnline          bool      `json:"is_online"`
	ActiveConnections int       `json:"active_connections"`
	LastSeen          time.Time `json:"last_seen,omitempty"`
}

// UserStatus reports whether the user has live sessions and when one was
// last seen.
func (h *Hub) UserStatus(userID string) UserStatus {
	active, lastSeen := h.registry.UserSessions(userID)
	return UserStatus{
		UserID:            userID,
		IsOnline:          active > 0,
		ActiveConnections: active,
		LastSeen:          lastSeen,
	}
}
