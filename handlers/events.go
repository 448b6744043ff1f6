package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

// Subscriber hands out a stream of dashboard events.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// EventsHandler streams dashboard events over Server-Sent Events.
type EventsHandler struct {
	Bus Subscriber
}

func NewEventsHandler(bus Subscriber) *EventsHandler {
	return &EventsHandler{Bus: bus}
}

// StreamHandler handles GET /api/events. The stream ends when the client
// disconnects or the bus closes.
func (h *EventsHandler) StreamHandler(c *gin.Context) {
	ctx := c.Request.Context()
	messages, err := h.Bus.Subscribe(ctx)
	if err != nil {
		utils.RespondError(c, "Failed to subscribe to events", err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			msg.Ack()
			var event models.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				getLogger(c).Warn("Dropping undecodable event", zap.String("uuid", msg.UUID), zap.Error(err))
				return true
			}
			c.SSEvent(notification.EventName(msg), event.Payload)
			return true
		}
	})
}
