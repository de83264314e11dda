package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/bssshyamsundhar/float-chat/internal/pkg/errors"
	"github.com/bssshyamsundhar/float-chat/internal/services"
)

type ConversationHandler struct {
	store *services.ConversationStore
}

func NewConversationHandler(store *services.ConversationStore) *ConversationHandler {
	return &ConversationHandler{store: store}
}

func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id := c.Param("id")
	msgs, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "conversation_not_found", errors.New("Conversation not found"))
			return
		}
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"conversation_id": id, "messages": msgs})
}

func (h *ConversationHandler) ListConversations(c *gin.Context) {
	RespondOK(c, gin.H{"conversations": h.store.List()})
}
