package models

import "time"

// Notification is the durable record written alongside (never instead
// of) real-time delivery, so clients can backfill history after a
// reconnect. The hub itself never replays it.
type Notification struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"not null" json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Data      string    `gorm:"type:jsonb" json:"data,omitempty"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// PublishRequest is the management-surface payload for pushing a message
// through the hub. Exactly one of ToUserID/Channel must be set.
type PublishRequest struct {
	Kind     string                 `json:"kind" binding:"required"`
	Data     map[string]interface{} `json:"data"`
	ToUserID string                 `json:"to_user_id,omitempty"`
	Channel  string                 `json:"channel,omitempty"`
}

// SubscriptionRequest asks the hub to add or remove a channel on every
// live connection of the authenticated user.
type SubscriptionRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// EventRequest is the ingest payload business-event producers POST; it
// is forwarded onto the event stream untouched.
type EventRequest struct {
	Type      string                 `json:"type" binding:"required"`
	ActorID   string                 `json:"actor_id"`
	SubjectID string                 `json:"subject_id"`
	Payload   map[string]interface{} `json:"payload"`
}
