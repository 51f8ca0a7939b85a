package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-service/internal/hub"
)

type fakePresence struct {
	online   bool
	lastSeen time.Time
	err      error
	queried  bool
}

func (f *fakePresence) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	f.queried = true
	return f.online, f.err
}

func (f *fakePresence) GetLastSeen(ctx context.Context, userID string) (time.Time, error) {
	return f.lastSeen, f.err
}

func statusRequest(t *testing.T, handler *RealtimeHandler, userID string) (*httptest.ResponseRecorder, hub.UserStatus) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/realtime/users/"+userID+"/status", nil)
	c.Params = gin.Params{{Key: "id", Value: userID}}

	handler.GetUserStatus(c)

	var status hub.UserStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w, status
}

func TestGetUserStatusFallsBackToMirror(t *testing.T) {
	h := hub.NewHub(nil, hub.Options{})
	seen := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	presence := &fakePresence{online: true, lastSeen: seen}

	w, status := statusRequest(t, NewRealtimeHandler(h, presence), "u1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, presence.queried)
	assert.True(t, status.IsOnline)
	assert.Zero(t, status.ActiveConnections)
	assert.True(t, status.LastSeen.Equal(seen))
}

func TestGetUserStatusMirrorFailureDegradesToLocal(t *testing.T) {
	h := hub.NewHub(nil, hub.Options{})
	presence := &fakePresence{err: errors.New("redis down")}

	w, status := statusRequest(t, NewRealtimeHandler(h, presence), "u1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, status.IsOnline)
}

func TestGetUserStatusOfflineEverywhere(t *testing.T) {
	h := hub.NewHub(nil, hub.Options{})
	presence := &fakePresence{online: false}

	_, status := statusRequest(t, NewRealtimeHandler(h, presence), "u1")

	assert.False(t, status.IsOnline)
	assert.Zero(t, status.ActiveConnections)
}
