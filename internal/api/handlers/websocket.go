package handlers

import (
	"log/slog"
	"net/http"

	"pulse-service/internal/hub"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *hub.Hub
}

func NewWSHandler(h *hub.Hub) *WSHandler {
	return &WSHandler{hub: h}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Upgrade to a persistent connection for real-time events. Authenticate with ?token=<jwt>.
// @Tags realtime
// @Param token query string true "Bearer credential"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]interface{} "Missing or invalid token"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	slog.Info("websocket upgrade requested", "userID", userID)
	hub.ServeWS(h.hub, c.Writer, c.Request, userID)
}
