package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bssshyamsundhar/float-chat/internal/services"
)

// HealthHandler reports liveness plus which optional dependencies came
// up. A degraded dependency is visible here, not fatal at startup.
type HealthHandler struct {
	databaseUp  bool
	qdrantUp    bool
	embeddingUp bool
	cache       *services.EmbeddingCache
}

func NewHealthHandler(databaseUp, qdrantUp, embeddingUp bool, cache *services.EmbeddingCache) *HealthHandler {
	return &HealthHandler{
		databaseUp:  databaseUp,
		qdrantUp:    qdrantUp,
		embeddingUp: embeddingUp,
		cache:       cache,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := func(up bool, yes, no string) string {
		if up {
			return yes
		}
		return no
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"database":             status(h.databaseUp, "connected", "disconnected"),
		"qdrant":               status(h.qdrantUp, "connected", "disconnected"),
		"embedding_model":      status(h.embeddingUp, "loaded", "not loaded"),
		"embedding_cache_size": h.cache.Len(),
	})
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Oceanographic Data Chatbot API",
		"status":  "online",
	})
}
