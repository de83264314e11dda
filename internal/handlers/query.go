package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/services"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

type QueryHandler struct {
	log      *logger.Logger
	pipeline *services.Pipeline
}

func NewQueryHandler(log *logger.Logger, pipeline *services.Pipeline) *QueryHandler {
	return &QueryHandler{
		log:      log.With("handler", "QueryHandler"),
		pipeline: pipeline,
	}
}

// ProcessQuery is the pipeline entry point. The pipeline itself never
// errors; only malformed request bodies are rejected here.
func (h *QueryHandler) ProcessQuery(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	resp := h.pipeline.Process(c.Request.Context(), req)
	RespondOK(c, resp)
}
