package hub

import "strings"

// Channel names are pure functions of kind plus scope id; nothing stores
// them, any component can recompute them.

const (
	// ChannelSystemUpdates carries operator announcements and
	// maintenance notices. Open to every authenticated user.
	ChannelSystemUpdates = "system_updates"

	// ChannelGlobalActivity carries the platform-wide activity feed.
	// Open to every authenticated user.
	ChannelGlobalActivity = "global_activity"

	prefixUserNotifications = "user_notifications:"
	prefixUserActivity      = "user_activity:"
	prefixArticleComments   = "article_comments:"
	prefixCreatorRevenue    = "creator_revenue:"
)

// UserNotificationsChannel is the private per-user notification stream.
func UserNotificationsChannel(userID string) string {
	return prefixUserNotifications + userID
}

// UserActivityChannel is the private per-user activity stream.
func UserActivityChannel(userID string) string {
	return prefixUserActivity + userID
}

// ArticleCommentsChannel carries live comment events for one article.
func ArticleCommentsChannel(articleID string) string {
	return prefixArticleComments + articleID
}

// CreatorRevenueChannel carries revenue events for one creator.
func CreatorRevenueChannel(creatorID string) string {
	return prefixCreatorRevenue + creatorID
}

// CanSubscribe decides whether a user may join a channel. It is a pure
// function with no side effects, consulted before any subscribe
// mutation.
//
// Private per-user channels (user_notifications, user_activity) and the
// creator revenue stream are restricted to their owner. The two global
// channels are open. Any other channel shape is allowed; tightening
// that default would silently change observable behavior for article
// and comment channels, so it stays permissive.
func CanSubscribe(userID, channel string) bool {
	switch channel {
	case ChannelSystemUpdates, ChannelGlobalActivity:
		return true
	}
	for _, prefix := range []string{prefixUserNotifications, prefixUserActivity, prefixCreatorRevenue} {
		if owner, ok := strings.CutPrefix(channel, prefix); ok {
			return owner == userID
		}
	}
	return true
}
