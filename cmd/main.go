package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bssshyamsundhar/float-chat/internal/clients/gemini"
	"github.com/bssshyamsundhar/float-chat/internal/clients/qdrant"
	redisclient "github.com/bssshyamsundhar/float-chat/internal/clients/redis"
	"github.com/bssshyamsundhar/float-chat/internal/db"
	"github.com/bssshyamsundhar/float-chat/internal/handlers"
	"github.com/bssshyamsundhar/float-chat/internal/observability"
	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/schema"
	"github.com/bssshyamsundhar/float-chat/internal/server"
	"github.com/bssshyamsundhar/float-chat/internal/services"
	"github.com/bssshyamsundhar/float-chat/internal/sse"
	"github.com/bssshyamsundhar/float-chat/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "float-chat",
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
	}); shutdown != nil {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	// Schema catalog
	schemaFile := utils.GetEnv("SCHEMA_FILE", "config/schema.yaml", log)
	catalog, err := schema.Load(schemaFile)
	if err != nil {
		log.Warn("Schema catalog load failed, using compiled-in default", "path", schemaFile, "error", err)
		catalog = schema.Default()
	}

	// Postgres
	var pool *pgxpool.Pool
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Warn("Postgres init failed, queries will report the database as unavailable", "error", err)
	} else {
		pool = postgresService.Pool()
		defer postgresService.Close()
	}

	// Gemini
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}

	// Qdrant
	qdrantClient, err := qdrant.NewFromEnv(log)
	if err != nil {
		log.Warn("Qdrant init failed, retrieval context will be degraded", "error", err)
		qdrantClient = nil
	}

	// SSE hub + optional redis fan-out
	hub := sse.NewHub(log)
	var bus services.TurnBus
	chatBus, err := redisclient.NewChatBus(log)
	if err != nil {
		log.Info("Redis chat bus disabled", "reason", err)
	} else {
		defer chatBus.Close()
		if err := chatBus.StartForwarder(ctx, hub.Publish); err != nil {
			log.Warn("Redis chat bus forwarder failed, using local hub only", "error", err)
		} else {
			bus = chatBus
		}
	}

	// Services
	log.Info("Setting up services from main...")
	embeddingCache := services.NewEmbeddingCache(log, geminiClient)
	retriever := services.NewRetriever(log, embeddingCache, qdrantClient)
	clarifier := services.NewClarifier(log, retriever, geminiClient,
		utils.GetEnvAsBool("CLARIFY_FAIL_CLOSED", false, log))
	generator := services.NewGenerator(log, retriever, geminiClient, catalog, services.GeneratorConfig{
		RowLimit:     utils.GetEnvAsInt("SQL_ROW_LIMIT", 500, log),
		Retries:      utils.GetEnvAsInt("GENERATION_RETRIES", 3, log),
		StageTimeout: time.Duration(utils.GetEnvAsInt("GENERATION_TIMEOUT_SECONDS", 0, log)) * time.Second,
	})
	executor := services.NewPgExecutor(log, pool)
	attempts := services.NewAttemptLog(log, utils.GetEnv("NL_SQL_LOG_FILE", "nl_sql_log.jsonl", log))
	store := services.NewConversationStore()
	notifier := services.NewChatNotifier(log, hub, bus)
	pipeline := services.NewPipeline(log, store, clarifier, generator, executor, attempts, notifier,
		catalog, utils.GetEnvAsInt("SQL_ROW_LIMIT", 500, log))

	// Handlers
	log.Info("Setting up handlers from main...")
	queryHandler := handlers.NewQueryHandler(log, pipeline)
	conversationHandler := handlers.NewConversationHandler(store)
	healthHandler := handlers.NewHealthHandler(pool != nil, qdrantClient != nil, true, embeddingCache)
	sseHandler := handlers.NewSSEHandler(log, hub)

	// Router
	log.Info("Setting up router from main...")
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:        origins,
		QueryHandler:        queryHandler,
		ConversationHandler: conversationHandler,
		HealthHandler:       healthHandler,
		SSEHandler:          sseHandler,
	})

	port := utils.GetEnv("PORT", "8000", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
