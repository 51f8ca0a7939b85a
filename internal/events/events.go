package events

import "time"

// Business event types carried on the platform event stream. Producers
// (article, comment, engagement, billing services) emit these; the
// bridge turns them into hub messages and durable notifications.
const (
	EventArticlePublished    = "article.published"
	EventCommentCreated      = "comment.created"
	EventClapAdded           = "clap.added"
	EventFollowerAdded       = "follower.added"
	EventSubscriptionChanged = "subscription.changed"
	EventRevenueUpdated      = "revenue.updated"
	EventSystemAnnouncement  = "system.announcement"
	EventSystemMaintenance   = "system.maintenance"
)

// BusinessEvent is one record on the event stream.
//
// SubjectID scopes the event: the article id for article/comment events,
// the receiving user id for engagement events, the creator id for
// subscription and revenue events. Payload carries the kind-specific
// fields and is forwarded to clients as the message data.
type BusinessEvent struct {
	Type      string                 `json:"type"`
	ActorID   string                 `json:"actor_id,omitempty"`
	SubjectID string                 `json:"subject_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
