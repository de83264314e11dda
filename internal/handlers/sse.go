package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// Stream holds the connection open and forwards conversation-turn
// events until the client disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		RespondError(c, http.StatusBadRequest, "missing_conversation_id", fmt.Errorf("conversation_id query parameter required"))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "streaming_unsupported", fmt.Errorf("response writer does not support streaming"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	client := h.hub.Subscribe(conversationID)
	defer h.hub.Unsubscribe(client)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("SSE marshal failed", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Event, raw)
			flusher.Flush()
		}
	}
}
