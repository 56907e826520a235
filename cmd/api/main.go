package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"sensasi-chat/config"
	"sensasi-chat/internal/handler"
	"sensasi-chat/internal/middleware"
	appredis "sensasi-chat/internal/redis"
	"sensasi-chat/internal/repository"
	"sensasi-chat/internal/services"
	"sensasi-chat/internal/storage"
	"sensasi-chat/internal/store"
	"sensasi-chat/pkg/database"
	"sensasi-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		mode = logger.ProductionMode
		gin.SetMode(gin.ReleaseMode)
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := appredis.NewClient(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cacheCfg := appredis.DefaultCacheConfig()
	if cfg.CacheTTL > 0 {
		cacheCfg.ConversationListTTL = cfg.CacheTTL
	}
	cache := appredis.NewCacheStore(redisClient, cacheCfg)
	limiter := appredis.NewRateLimiter(redisClient, appredis.DefaultRateLimitConfig())

	// S3 is optional; without it image attachments are disabled.
	var s3Client *storage.Client
	if cfg.S3Bucket != "" {
		var err error
		s3Client, err = storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			PresignTTL: cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatalf("Failed to configure s3 storage: %v", err)
		}
	}

	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)

	convService := services.NewConversationService(convRepo, msgRepo)
	msgService := services.NewMessageService(msgRepo, convRepo)
	attachmentService := services.NewAttachmentService(s3Client)
	verifier := services.NewTokenVerifier(cfg)

	contexts := store.NewProvider(convService, msgService, cache)

	convHandler := handler.NewConversationHandler(convService, contexts)
	msgHandler := handler.NewMessageHandler(msgService, contexts)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(verifier))
	{
		api.GET("/conversations", convHandler.List)
		api.POST("/conversations", convHandler.Start)
		api.GET("/conversations/:id", convHandler.GetByID)
		api.POST("/conversations/:id/read", convHandler.MarkRead)

		api.GET("/conversations/:id/messages", msgHandler.List)
		api.POST("/conversations/:id/messages", middleware.SendRateLimitMiddleware(limiter), msgHandler.Send)
		api.PATCH("/messages/:messageId", msgHandler.Edit)
		api.DELETE("/messages/:messageId", msgHandler.Delete)

		api.POST("/attachments/presign", attachmentHandler.Presign)
	}

	l.Infof("Starting server on port %s", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
