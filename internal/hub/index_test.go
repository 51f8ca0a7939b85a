package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexSubscribeUnsubscribe(t *testing.T) {
	index := NewChannelIndex()

	index.Subscribe("c1", "article_comments:a1")
	index.Subscribe("c2", "article_comments:a1")

	assert.True(t, index.Contains("c1", "article_comments:a1"))
	assert.True(t, index.Contains("c2", "article_comments:a1"))
	assert.ElementsMatch(t, []string{"c1", "c2"}, index.Subscribers("article_comments:a1"))

	index.Unsubscribe("c1", "article_comments:a1")
	assert.False(t, index.Contains("c1", "article_comments:a1"))
	assert.Equal(t, []string{"c2"}, index.Subscribers("article_comments:a1"))
}

func TestIndexRemovesEmptyChannels(t *testing.T) {
	index := NewChannelIndex()

	index.Subscribe("c1", "article_comments:a1")
	index.Unsubscribe("c1", "article_comments:a1")

	// No dangling empty entry may survive the last unsubscribe.
	assert.Nil(t, index.Subscribers("article_comments:a1"))
	assert.Empty(t, index.ChannelCounts())
}

func TestIndexUnsubscribeIdempotent(t *testing.T) {
	index := NewChannelIndex()

	index.Subscribe("c1", "system_updates")
	index.Unsubscribe("c1", "system_updates")
	index.Unsubscribe("c1", "system_updates")
	index.Unsubscribe("c2", "never_existed")

	assert.Empty(t, index.ChannelCounts())
}

func TestIndexSubscribersIsSnapshot(t *testing.T) {
	index := NewChannelIndex()
	index.Subscribe("c1", "system_updates")

	snapshot := index.Subscribers("system_updates")
	index.Subscribe("c2", "system_updates")

	assert.Len(t, snapshot, 1, "snapshot must not observe later subscribes")
	assert.Len(t, index.Subscribers("system_updates"), 2)
}

func TestIndexUnsubscribeAll(t *testing.T) {
	index := NewChannelIndex()
	index.Subscribe("c1", "a")
	index.Subscribe("c1", "b")
	index.Subscribe("c2", "b")

	index.UnsubscribeAll("c1", []string{"a", "b"})

	assert.Nil(t, index.Subscribers("a"))
	assert.Equal(t, []string{"c2"}, index.Subscribers("b"))
}

func TestIndexChannelCounts(t *testing.T) {
	index := NewChannelIndex()
	index.Subscribe("c1", "a")
	index.Subscribe("c2", "a")
	index.Subscribe("c2", "b")

	counts := index.ChannelCounts()
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, counts)
}
