package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"pulse-service/internal/config"
	"pulse-service/internal/hub"

	"github.com/segmentio/kafka-go"
)

// Publisher is the hub surface producers reach: direct and channel
// addressed delivery. Business-event code never touches the registry or
// channel index directly.
type Publisher interface {
	PublishToUser(userID string, kind hub.MessageType, payload map[string]interface{}) int
	PublishToChannel(channel string, kind hub.MessageType, payload map[string]interface{}) int
}

// NotificationStore is the durable store written alongside real-time
// delivery.
type NotificationStore interface {
	Persist(ctx context.Context, userID, kind, title, body string, data map[string]interface{}) error
}

// Bridge consumes the platform event stream and fans each event into
// (1) real-time hub delivery and (2) the durable notification store.
// Store failures are logged and never block delivery.
type Bridge struct {
	reader    *kafka.Reader
	publisher Publisher
	store     NotificationStore
}

func NewBridge(cfg *config.KafkaConfig, publisher Publisher, store NotificationStore) *Bridge {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Bridge{
		reader:    reader,
		publisher: publisher,
		store:     store,
	}
}

// Run consumes until the context is cancelled. Undecodable records are
// logged and committed so a poison message cannot wedge the stream.
func (b *Bridge) Run(ctx context.Context) error {
	slog.Info("event bridge started", "topic", b.reader.Config().Topic)

	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			slog.Error("event fetch failed", "error", err)
			continue
		}

		var event BusinessEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Error("undecodable event dropped", "offset", msg.Offset, "error", err)
		} else {
			b.route(ctx, &event)
		}

		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			slog.Error("event commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (b *Bridge) Close() error {
	return b.reader.Close()
}

// route maps one business event to its delivery targets. Unknown types
// are logged and skipped; event producers evolve independently of this
// service.
func (b *Bridge) route(ctx context.Context, event *BusinessEvent) {
	payload := event.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}

	switch event.Type {
	case EventArticlePublished:
		b.publisher.PublishToChannel(hub.ChannelGlobalActivity, hub.MessageTypeNewArticle, payload)

	case EventCommentCreated:
		b.publisher.PublishToChannel(hub.ArticleCommentsChannel(event.SubjectID), hub.MessageTypeNewComment, payload)
		if author, ok := payload["author_id"].(string); ok && author != "" && author != event.ActorID {
			b.publisher.PublishToUser(author, hub.MessageTypeNotification, payload)
			b.persist(ctx, author, hub.MessageTypeNewComment, "New comment", "Someone commented on your article", payload)
		}

	case EventClapAdded:
		b.publisher.PublishToUser(event.SubjectID, hub.MessageTypeNewClap, payload)
		b.persist(ctx, event.SubjectID, hub.MessageTypeNewClap, "New clap", "Your article got a clap", payload)

	case EventFollowerAdded:
		b.publisher.PublishToUser(event.SubjectID, hub.MessageTypeNewFollower, payload)
		b.persist(ctx, event.SubjectID, hub.MessageTypeNewFollower, "New follower", "You have a new follower", payload)

	case EventSubscriptionChanged:
		b.publisher.PublishToUser(event.SubjectID, hub.MessageTypeSubscriptionUpdate, payload)
		b.persist(ctx, event.SubjectID, hub.MessageTypeSubscriptionUpdate, "Subscription update", "A subscription to your content changed", payload)

	case EventRevenueUpdated:
		b.publisher.PublishToChannel(hub.CreatorRevenueChannel(event.SubjectID), hub.MessageTypeRevenueUpdate, payload)
		b.persist(ctx, event.SubjectID, hub.MessageTypeRevenueUpdate, "Revenue update", "Your revenue changed", payload)

	case EventSystemAnnouncement:
		b.publisher.PublishToChannel(hub.ChannelSystemUpdates, hub.MessageTypeSystemAnnouncement, payload)

	case EventSystemMaintenance:
		b.publisher.PublishToChannel(hub.ChannelSystemUpdates, hub.MessageTypeMaintenanceNotice, payload)

	default:
		slog.Warn("unknown event type skipped", "type", event.Type)
	}
}

func (b *Bridge) persist(ctx context.Context, userID string, kind hub.MessageType, title, body string, data map[string]interface{}) {
	if b.store == nil {
		return
	}
	if err := b.store.Persist(ctx, userID, kind.String(), title, body, data); err != nil {
		slog.Error("notification persist failed", "userID", userID, "kind", kind, "error", err)
	}
}
