package sse

import (
	"testing"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := hub.Subscribe("conv-1")
	defer hub.Unsubscribe(client)

	hub.Publish(Message{
		ConversationID: "conv-1",
		Event:          EventTurnAppended,
		Turn:           types.ChatMessage{Message: "hello", MessageType: types.MessageTypeBot},
	})

	select {
	case msg := <-client.Outbound:
		if msg.Turn.Message != "hello" {
			t.Fatalf("got %+v", msg)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestHubPublishScopedToConversation(t *testing.T) {
	hub := NewHub(logger.NewNop())
	a := hub.Subscribe("conv-a")
	b := hub.Subscribe("conv-b")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(Message{ConversationID: "conv-a", Event: EventTurnAppended})

	if len(a.Outbound) != 1 {
		t.Fatalf("conv-a got %d messages, want 1", len(a.Outbound))
	}
	if len(b.Outbound) != 0 {
		t.Fatalf("conv-b got %d messages, want 0", len(b.Outbound))
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := hub.Subscribe("conv-1")
	defer hub.Unsubscribe(client)

	// Overflow the outbound buffer; Publish must not block.
	for i := 0; i < 100; i++ {
		hub.Publish(Message{ConversationID: "conv-1", Event: EventTurnAppended})
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("buffer = %d, want full at %d", len(client.Outbound), cap(client.Outbound))
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := hub.Subscribe("conv-1")
	hub.Unsubscribe(client)

	if _, ok := <-client.Outbound; ok {
		t.Fatal("outbound channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe is a no-op.
	hub.Publish(Message{ConversationID: "conv-1"})
}
