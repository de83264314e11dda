package services

import (
	"context"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/sse"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

// TurnBus is the cross-instance fan-out surface (redis pub/sub in
// production). Optional.
type TurnBus interface {
	Publish(ctx context.Context, msg sse.Message) error
}

// ChatNotifier pushes appended conversation turns to SSE subscribers.
// With a bus configured, events route through it and come back via the
// bus forwarder, so every instance's hub sees every turn exactly once.
type ChatNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus TurnBus
}

func NewChatNotifier(log *logger.Logger, hub *sse.Hub, bus TurnBus) *ChatNotifier {
	return &ChatNotifier{
		log: log.With("service", "ChatNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *ChatNotifier) NotifyTurn(ctx context.Context, conversationID string, turn types.ChatMessage) {
	if n == nil || n.hub == nil {
		return
	}
	msg := sse.Message{
		ConversationID: conversationID,
		Event:          sse.EventTurnAppended,
		Turn:           turn,
	}
	if n.bus != nil {
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("Turn bus publish failed, falling back to local hub", "error", err)
			n.hub.Publish(msg)
		}
		return
	}
	n.hub.Publish(msg)
}
