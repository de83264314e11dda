package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/bssshyamsundhar/float-chat/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins        []string
	QueryHandler        *handlers.QueryHandler
	ConversationHandler *handlers.ConversationHandler
	HealthHandler       *handlers.HealthHandler
	SSEHandler          *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("float-chat"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	allowAll := len(origins) == 1 && strings.TrimSpace(origins[0]) == "*"
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  allowAll,
		AllowOrigins:     pick(!allowAll, origins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: !allowAll,
	}))

	router.GET("/", handlers.Root)
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.GET("/health", cfg.HealthHandler.HealthCheck)

	router.POST("/query", cfg.QueryHandler.ProcessQuery)
	router.GET("/conversations", cfg.ConversationHandler.ListConversations)
	router.GET("/conversations/:id", cfg.ConversationHandler.GetConversation)
	router.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}

func pick(cond bool, origins []string) []string {
	if cond {
		return origins
	}
	return nil
}
