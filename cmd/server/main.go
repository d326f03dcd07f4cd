package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/api"
	"github.com/lalith-99/docgate/internal/audit"
	"github.com/lalith-99/docgate/internal/config"
	"github.com/lalith-99/docgate/internal/db"
	"github.com/lalith-99/docgate/internal/middleware"
	"github.com/lalith-99/docgate/internal/observ"
	"github.com/lalith-99/docgate/internal/rag"
	"github.com/lalith-99/docgate/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config + logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// 2. Connect to Postgres and Redis
	//
	// context.Background() at startup: there's no parent request or
	// deadline yet — startup is "take as long as you need to connect".
	// Once the server runs, every request carries its own context.
	// ---------------------------------------------------------------
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisClient, err := db.NewRedis(context.Background(), cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// ---------------------------------------------------------------
	// 3. Repositories
	//
	// One pool shared by every store — pgxpool is goroutine-safe.
	// ---------------------------------------------------------------
	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	docRepo := postgres.NewDocumentStore(pool)
	chunkRepo := postgres.NewChunkStore(pool)
	logRepo := postgres.NewQueryLogStore(pool)
	feedbackRepo := postgres.NewFeedbackStore(pool)

	// ---------------------------------------------------------------
	// 4. Services
	//
	// 30s on the identity cache bounds how long a revoked grant can
	// keep working in the worst case (mutations also invalidate).
	// ---------------------------------------------------------------
	userCache := access.NewUserCache(redisClient, 30*time.Second)
	accessSvc := access.NewService(userRepo, userCache, logger)
	auditSvc := audit.NewService(logRepo, feedbackRepo, userRepo, logger)

	openaiClient := rag.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.ChatModel)
	searcher := rag.NewFaissSearcher(cfg.FaissURL)
	pipeline := rag.NewPipeline(openaiClient, searcher, openaiClient, chunkRepo, docRepo, auditSvc, logger)

	// ---------------------------------------------------------------
	// 5. Handlers + routes
	// ---------------------------------------------------------------
	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.DefaultTenant, logger)
	userHandler := api.NewUserHandler(accessSvc, logger)
	docHandler := api.NewDocumentHandler(accessSvc, docRepo, chunkRepo, logger)
	ingestHandler := api.NewIngestHandler(accessSvc, docRepo, chunkRepo, openaiClient, searcher, logger)
	chatHandler := api.NewChatHandler(accessSvc, pipeline, logger)
	feedbackHandler := api.NewFeedbackHandler(accessSvc, auditSvc, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Health check is PUBLIC — load balancers hit this without auth.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Signup and login are the other public endpoints — they PRODUCE the
	// token everything else requires.
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	// Everything below requires a valid JWT. The middleware only proves
	// identity; role and grant checks happen per-operation against the
	// live User record.
	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", userHandler.GetMe)
	v1.GET("/users", userHandler.List)
	v1.PATCH("/users/:id", userHandler.Update)
	v1.POST("/users/become-first-admin", userHandler.BecomeFirstAdmin)
	v1.GET("/meta/sources", userHandler.Sources)
	v1.GET("/meta/roles", userHandler.Roles)

	v1.GET("/documents/:id", docHandler.GetByID)
	v1.GET("/documents/:id/chunks", docHandler.Chunks)
	v1.GET("/sources/:key/documents", docHandler.ListBySource)
	v1.POST("/documents/lookup", docHandler.Lookup)
	v1.POST("/chunks/lookup", docHandler.LookupChunks)

	v1.POST("/ingest/documents", ingestHandler.Ingest)

	v1.POST("/chat", chatHandler.Chat)
	v1.POST("/feedback", feedbackHandler.Create)
	v1.GET("/logs", feedbackHandler.ListLogs)

	logger.Info("starting docgate",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("default_tenant", cfg.DefaultTenant),
	)

	return srv.Run(":" + cfg.Port)
}
