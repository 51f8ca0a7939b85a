package hub

import (
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the kind of a wire frame. The protocol kinds
// (connect, ping/pong, subscribe/unsubscribe and their acks) are exchanged
// between hub and client; the remaining kinds are platform notifications
// pushed by business-event producers.
type MessageType string

const (
	// Protocol kinds
	MessageTypeConnect        MessageType = "connection.connect"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
	MessageTypeSubscribe      MessageType = "subscribe"
	MessageTypeSubscribeAck   MessageType = "subscribe.ack"
	MessageTypeUnsubscribe    MessageType = "unsubscribe"
	MessageTypeUnsubscribeAck MessageType = "unsubscribe.ack"

	// Platform notification kinds
	MessageTypeNewArticle         MessageType = "article.new"
	MessageTypeNewComment         MessageType = "comment.new"
	MessageTypeNewClap            MessageType = "clap.new"
	MessageTypeNewFollower        MessageType = "follower.new"
	MessageTypeSubscriptionUpdate MessageType = "subscription.update"
	MessageTypeRevenueUpdate      MessageType = "revenue.update"
	MessageTypeSystemAnnouncement MessageType = "system.announcement"
	MessageTypeMaintenanceNotice  MessageType = "system.maintenance"
	MessageTypeNotification       MessageType = "notification"
	MessageTypeBroadcast          MessageType = "broadcast"
)

// String returns the string representation of the MessageType.
func (mt MessageType) String() string {
	return string(mt)
}

// IsValid checks if the MessageType is a known kind.
func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeConnect, MessageTypePing, MessageTypePong,
		MessageTypeSubscribe, MessageTypeSubscribeAck,
		MessageTypeUnsubscribe, MessageTypeUnsubscribeAck,
		MessageTypeNewArticle, MessageTypeNewComment, MessageTypeNewClap,
		MessageTypeNewFollower, MessageTypeSubscriptionUpdate,
		MessageTypeRevenueUpdate, MessageTypeSystemAnnouncement,
		MessageTypeMaintenanceNotice, MessageTypeNotification,
		MessageTypeBroadcast:
		return true
	default:
		return false
	}
}

// IsProtocol reports whether the kind belongs to the connection protocol
// rather than the platform notification family.
func (mt MessageType) IsProtocol() bool {
	switch mt {
	case MessageTypeConnect, MessageTypePing, MessageTypePong,
		MessageTypeSubscribe, MessageTypeSubscribeAck,
		MessageTypeUnsubscribe, MessageTypeUnsubscribeAck:
		return true
	default:
		return false
	}
}

// Message is one wire frame. Exactly one of ToUserID/Channel selects the
// delivery strategy for producer-originated messages; protocol frames
// carry neither. Messages are treated as immutable once built: the hub
// marshals a frame once and hands the encoded bytes to each recipient
// queue.
type Message struct {
	ID        string                 `json:"id,omitempty"`
	Type      MessageType            `json:"message_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	FromUser  string                 `json:"from_user_id,omitempty"`
	ToUser    string                 `json:"to_user_id,omitempty"`
	Channel   string                 `json:"channel,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
}

// NewMessage creates a message of the given kind.
func NewMessage(msgType MessageType, data map[string]interface{}) *Message {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// NewConnectMessage is queued to a client immediately after a successful
// register, acknowledging the assigned connection id.
func NewConnectMessage(connectionID, userID string) *Message {
	return NewMessage(MessageTypeConnect, map[string]interface{}{
		"connection_id": connectionID,
		"user_id":       userID,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// NewPongMessage echoes the client timestamp and adds the server receipt
// time.
func NewPongMessage(clientTimestamp string) *Message {
	return NewMessage(MessageTypePong, map[string]interface{}{
		"timestamp":   clientTimestamp,
		"received_at": time.Now().Format(time.RFC3339),
	})
}

// NewSubscribeAckMessage reports the channels that passed the
// authorization gate. Rejected channels are simply absent.
func NewSubscribeAckMessage(accepted []string) *Message {
	return NewMessage(MessageTypeSubscribeAck, map[string]interface{}{
		"accepted": accepted,
	})
}

// NewUnsubscribeAckMessage reports the channels the connection left.
func NewUnsubscribeAckMessage(removed []string) *Message {
	return NewMessage(MessageTypeUnsubscribeAck, map[string]interface{}{
		"removed": removed,
	})
}

// ChannelList extracts the "channels" list of a subscribe/unsubscribe
// frame. Non-string entries are skipped.
func (m *Message) ChannelList() []string {
	raw, ok := m.Data["channels"].([]interface{})
	if !ok {
		return nil
	}
	channels := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok && name != "" {
			channels = append(channels, name)
		}
	}
	return channels
}
