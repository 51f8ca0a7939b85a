package handlers

import (
	"net/http"

	"pulse-service/internal/events"
	"pulse-service/internal/models"

	"github.com/gin-gonic/gin"
)

// EventHandler is the ingest door for business-event producers: the
// event lands on the stream and comes back through the bridge like any
// other platform event.
type EventHandler struct {
	producer *events.EventProducer
}

func NewEventHandler(producer *events.EventProducer) *EventHandler {
	return &EventHandler{producer: producer}
}

// Ingest godoc
// @Summary Ingest a business event
// @Description Queue a platform event (article published, comment created, ...) for fan-out.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.EventRequest true "Event"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /events [post]
func (h *EventHandler) Ingest(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := &events.BusinessEvent{
		Type:      req.Type,
		ActorID:   req.ActorID,
		SubjectID: req.SubjectID,
		Payload:   req.Payload,
	}
	if err := h.producer.Emit(event); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event not accepted"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
