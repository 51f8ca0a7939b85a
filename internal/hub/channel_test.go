package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "user_notifications:u1", UserNotificationsChannel("u1"))
	assert.Equal(t, "user_activity:u1", UserActivityChannel("u1"))
	assert.Equal(t, "article_comments:a42", ArticleCommentsChannel("a42"))
	assert.Equal(t, "creator_revenue:u7", CreatorRevenueChannel("u7"))
}

func TestCanSubscribe(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		channel string
		want    bool
	}{
		{"own notifications", "u1", "user_notifications:u1", true},
		{"other user notifications", "u1", "user_notifications:u2", false},
		{"own activity", "u1", "user_activity:u1", true},
		{"other user activity", "u1", "user_activity:u2", false},
		{"own revenue", "u1", "creator_revenue:u1", true},
		{"other creator revenue", "u1", "creator_revenue:u2", false},
		{"system updates", "u1", ChannelSystemUpdates, true},
		{"global activity", "u1", ChannelGlobalActivity, true},
		{"article comments default-allow", "u1", "article_comments:a1", true},
		{"arbitrary channel default-allow", "u1", "anything_goes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSubscribe(tt.userID, tt.channel))
		})
	}
}
