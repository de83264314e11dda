package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

type Event string

const (
	EventTurnAppended Event = "ConversationTurnAppended"
)

// Message is one event on a conversation channel.
type Message struct {
	ConversationID string            `json:"conversation_id"`
	Event          Event             `json:"event"`
	Turn           types.ChatMessage `json:"turn"`
}

// Client is one connected SSE stream subscribed to a single
// conversation.
type Client struct {
	ID             uuid.UUID
	ConversationID string
	Outbound       chan Message
}

// Hub fans conversation-turn events out to connected SSE clients.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log.With("component", "SSEHub"),
		clients: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(conversationID string) *Client {
	c := &Client{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Outbound:       make(chan Message, 16),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conversationID] == nil {
		h.clients[conversationID] = make(map[*Client]bool)
	}
	h.clients[conversationID][c] = true
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.ConversationID]; ok {
		if set[c] {
			delete(set, c)
			close(c.Outbound)
		}
		if len(set) == 0 {
			delete(h.clients, c.ConversationID)
		}
	}
}

// Publish delivers msg to every subscriber of its conversation. Slow
// clients drop events rather than block the pipeline.
func (h *Hub) Publish(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[msg.ConversationID] {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("Dropping SSE event for slow client", "client_id", c.ID, "conversation_id", msg.ConversationID)
		}
	}
}
