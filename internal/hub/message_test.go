package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTypeIsValid(t *testing.T) {
	assert.True(t, MessageTypePing.IsValid())
	assert.True(t, MessageTypeNewComment.IsValid())
	assert.False(t, MessageType("made.up").IsValid())
	assert.False(t, MessageType("").IsValid())
}

func TestMessageTypeIsProtocol(t *testing.T) {
	assert.True(t, MessageTypeSubscribeAck.IsProtocol())
	assert.True(t, MessageTypePong.IsProtocol())
	assert.False(t, MessageTypeNewArticle.IsProtocol())
	assert.False(t, MessageTypeNotification.IsProtocol())
}

func TestMessageWireShape(t *testing.T) {
	msg := NewMessage(MessageTypeNewComment, map[string]interface{}{
		"comment_id": "cm1",
		"article_id": "a1",
	})
	msg.Channel = "article_comments:a1"

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "comment.new", decoded["message_type"])
	assert.Equal(t, "article_comments:a1", decoded["channel"])
	assert.NotContains(t, decoded, "to_user_id", "unset addressing must be omitted")
}

func TestChannelListParsing(t *testing.T) {
	var msg Message
	raw := []byte(`{"message_type":"subscribe","data":{"channels":["a","b",7,""]}}`)
	require.NoError(t, json.Unmarshal(raw, &msg))

	assert.Equal(t, []string{"a", "b"}, msg.ChannelList(), "non-string and empty entries are skipped")
}

func TestChannelListMissing(t *testing.T) {
	msg := NewMessage(MessageTypeSubscribe, nil)
	assert.Nil(t, msg.ChannelList())
}

func TestPongEchoesTimestamp(t *testing.T) {
	pong := NewPongMessage("2026-01-02T10:00:00Z")
	assert.Equal(t, MessageTypePong, pong.Type)
	assert.Equal(t, "2026-01-02T10:00:00Z", pong.Data["timestamp"])
	assert.NotEmpty(t, pong.Data["received_at"])
}
