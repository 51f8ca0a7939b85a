package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection("u1", 8)

	require.NoError(t, registry.Register(conn))

	got, ok := registry.Get(conn.ID)
	require.True(t, ok)
	assert.Equal(t, conn, got)

	conns := registry.ConnectionsOfUser("u1")
	require.Len(t, conns, 1)
	assert.Equal(t, conn.ID, conns[0].ID)

	connections, users := registry.Counts()
	assert.Equal(t, 1, connections)
	assert.Equal(t, 1, users)
}

func TestRegistryDuplicateRegister(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection("u1", 8)

	require.NoError(t, registry.Register(conn))
	assert.ErrorIs(t, registry.Register(conn), ErrDuplicateConnection)
}

func TestRegistryUnregisterReturnsSubscriptions(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection("u1", 8)
	require.NoError(t, registry.Register(conn))

	conn.addSubscription("system_updates")
	conn.addSubscription("article_comments:a1")

	removed, subscriptions := registry.Unregister(conn.ID)
	require.NotNil(t, removed)
	assert.ElementsMatch(t, []string{"system_updates", "article_comments:a1"}, subscriptions)

	_, ok := registry.Get(conn.ID)
	assert.False(t, ok)
	assert.Empty(t, registry.ConnectionsOfUser("u1"))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection("u1", 8)
	require.NoError(t, registry.Register(conn))

	removed, _ := registry.Unregister(conn.ID)
	require.NotNil(t, removed)

	// A second unregister races with eviction in production and must be
	// a silent no-op.
	removed, subscriptions := registry.Unregister(conn.ID)
	assert.Nil(t, removed)
	assert.Nil(t, subscriptions)
}

func TestRegistryMultipleSessionsPerUser(t *testing.T) {
	registry := NewRegistry()
	first := newConnection("u1", 8)
	second := newConnection("u1", 8)
	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))

	assert.Len(t, registry.ConnectionsOfUser("u1"), 2)

	connections, users := registry.Counts()
	assert.Equal(t, 2, connections)
	assert.Equal(t, 1, users)

	registry.Unregister(first.ID)
	assert.Len(t, registry.ConnectionsOfUser("u1"), 1)

	registry.Unregister(second.ID)
	assert.Empty(t, registry.ConnectionsOfUser("u1"))
	_, users = registry.Counts()
	assert.Zero(t, users)
}

func TestRegistryTouchLivenessAndStale(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection("u1", 8)
	require.NoError(t, registry.Register(conn))

	past := time.Now().Add(-10 * time.Minute)
	conn.touch(past)
	assert.Equal(t, []string{conn.ID}, registry.Stale(time.Now().Add(-5*time.Minute)))

	registry.TouchLiveness(conn.ID, time.Now())
	assert.Empty(t, registry.Stale(time.Now().Add(-5*time.Minute)))

	// Touching an unknown id must be a no-op, not a panic.
	registry.TouchLiveness("nope", time.Now())
}

func TestRegistryUserSessions(t *testing.T) {
	registry := NewRegistry()

	active, lastSeen := registry.UserSessions("u1")
	assert.Zero(t, active)
	assert.True(t, lastSeen.IsZero())

	first := newConnection("u1", 8)
	second := newConnection("u1", 8)
	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))

	newest := time.Now().Add(time.Minute)
	second.touch(newest)

	active, lastSeen = registry.UserSessions("u1")
	assert.Equal(t, 2, active)
	assert.Equal(t, newest, lastSeen)
}
