package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-manager/backend/internal/cache"
	"crm-manager/backend/internal/config"
	"crm-manager/backend/internal/handlers"
	"crm-manager/backend/internal/middleware"
	"crm-manager/backend/internal/repositories"
	"crm-manager/backend/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := repositories.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache := cache.NewRedisCache(&cache.Config{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := redisCache.Health(); err != nil {
		log.Printf("Redis unavailable, notification caching degraded: %v", err)
	}

	notificationService := services.NewCachedNotificationService(
		services.NewNotificationService(),
		redisCache,
		time.Duration(cfg.Upload.CacheTTLSec)*time.Second,
	)

	attachmentService, err := services.NewAttachmentService(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router := handlers.NewRouter(handlers.RouterConfig{
		DB:            db,
		Cache:         redisCache,
		Config:        cfg,
		RateLimiter:   rateLimiter,
		Auth:          services.NewAuthService(cfg.Auth),
		Register:      services.NewRegisterService(cfg.Auth.BCryptCost),
		Users:         services.NewUserService(),
		Clients:       services.NewClientService(),
		Categories:    services.NewCategoryService(),
		Tasks:         services.NewTaskService(notificationService),
		Comments:      services.NewCommentService(notificationService),
		Notifications: notificationService,
		Attachments:   attachmentService,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	rateLimiter.Stop()
	if err := redisCache.Close(); err != nil {
		log.Printf("Error closing redis connection: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}

	log.Println("Server stopped")
}
