package services

import (
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/bssshyamsundhar/float-chat/internal/pkg/errors"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

// ConversationStore owns the in-process conversation map: opaque id ->
// append-only turn list. State lives for the process lifetime only.
// Turns within one conversation append in call order; concurrent
// requests against the same id are last-write-wins.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string][]types.ChatMessage
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string][]types.ChatMessage),
	}
}

// Ensure returns id unchanged when non-empty, otherwise mints a new
// conversation id.
func (s *ConversationStore) Ensure(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *ConversationStore) Append(id string, msg types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = append(s.conversations[id], msg)
}

func (s *ConversationStore) Get(id string) ([]types.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.conversations[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	out := make([]types.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *ConversationStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	return ids
}

// Clear drops every conversation. Administrative use only.
func (s *ConversationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[string][]types.ChatMessage)
}
