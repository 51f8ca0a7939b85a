package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pulse-service/internal/hub"
	"pulse-service/internal/models"

	"github.com/gin-gonic/gin"
)

// PresenceReader answers online-status queries from the Redis mirror,
// covering users whose sessions live on another instance.
type PresenceReader interface {
	IsUserOnline(ctx context.Context, userID string) (bool, error)
	GetLastSeen(ctx context.Context, userID string) (time.Time, error)
}

// RealtimeHandler is the management surface over the hub: load stats,
// per-user online status and operator-driven publishing.
type RealtimeHandler struct {
	hub      *hub.Hub
	presence PresenceReader
}

func NewRealtimeHandler(h *hub.Hub, presence PresenceReader) *RealtimeHandler {
	return &RealtimeHandler{hub: h, presence: presence}
}

// GetStats godoc
// @Summary Hub statistics
// @Description Point-in-time connection, user and channel subscriber counts
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} hub.StatsSnapshot
// @Router /realtime/stats [get]
func (h *RealtimeHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}

// GetUserStatus godoc
// @Summary User online status
// @Description Answers from the local hub first, then the Redis mirror for users connected elsewhere.
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} hub.UserStatus
// @Router /realtime/users/{id}/status [get]
func (h *RealtimeHandler) GetUserStatus(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	status := h.hub.UserStatus(userID)
	if !status.IsOnline && h.presence != nil {
		// Not connected here; the mirror may know a session on another
		// instance. Mirror failures degrade to the local answer.
		ctx := c.Request.Context()
		if online, err := h.presence.IsUserOnline(ctx, userID); err == nil {
			status.IsOnline = online
		}
		if lastSeen, err := h.presence.GetLastSeen(ctx, userID); err == nil && lastSeen.After(status.LastSeen) {
			status.LastSeen = lastSeen
		}
	}
	c.JSON(http.StatusOK, status)
}

// Publish godoc
// @Summary Publish a message
// @Description Deliver a message to a user's sessions or a channel's subscribers. Exactly one of to_user_id/channel must be set.
// @Tags realtime
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PublishRequest true "Message"
// @Success 200 {object} map[string]interface{} "delivered count"
// @Failure 400 {object} map[string]interface{} "invalid addressing"
// @Router /realtime/publish [post]
func (h *RealtimeHandler) Publish(c *gin.Context) {
	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := hub.MessageType(req.Kind)
	if !kind.IsValid() || kind.IsProtocol() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message kind"})
		return
	}
	if (req.ToUserID == "") == (req.Channel == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of to_user_id or channel must be set"})
		return
	}

	var delivered int
	if req.ToUserID != "" {
		delivered = h.hub.PublishToUser(req.ToUserID, kind, req.Data)
	} else {
		delivered = h.hub.PublishToChannel(req.Channel, kind, req.Data)
	}

	// Zero deliveries is not an error: the target is simply offline.
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

// Subscribe godoc
// @Summary Subscribe the caller's live connections to a channel
// @Description Convenience endpoint; the usual subscription path is an in-band subscribe frame.
// @Tags realtime
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SubscriptionRequest true "Channel"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{} "channel not allowed"
// @Router /realtime/subscriptions [post]
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscribed, err := h.hub.SubscribeUser(userID, req.Channel)
	if err != nil {
		if errors.Is(err, hub.ErrForbiddenChannel) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "connections": subscribed})
}

// Unsubscribe godoc
// @Summary Unsubscribe the caller's live connections from a channel
// @Tags realtime
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SubscriptionRequest true "Channel"
// @Success 200 {object} map[string]interface{}
// @Router /realtime/subscriptions [delete]
func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed := h.hub.UnsubscribeUser(userID, req.Channel)
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "connections": removed})
}
