package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/tradehub/internal/config"
	"github.com/tradehub/internal/database"
	"github.com/tradehub/internal/handler"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/internal/storage"
	"github.com/tradehub/internal/worker"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := middleware.InitLogger(cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	middleware.LogInfo("TradeHub %s (commit %s, built %s)", Version, Commit, BuildTime)

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := database.Open(cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto migrate database
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Optional Redis trade feed cache
	var (
		rdb        *redis.Client
		tradeCache service.TradeCache
	)
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg)
		tradeCache = service.NewRedisTradeCache(rdb, time.Duration(cfg.Redis.TradeCacheTTLSeconds)*time.Second)
	}

	// Optional MinIO avatar storage
	avatars, err := initAvatarStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize avatar storage: %v", err)
	}

	responder, err := service.NewResponder(cfg.Chat.Responder)
	if err != nil {
		log.Fatalf("Failed to configure chat: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, userRepo)
	deps := handler.Dependencies{
		Auth:          service.NewAuthService(userRepo, cfg.JWT),
		Users:         service.NewUserService(userRepo, avatars, cfg.Storage.MaxAvatarBytes),
		Trades:        service.NewTradeService(tradeRepo, userRepo, notificationService, tradeCache),
		Notifications: notificationService,
		Chat:          service.NewChatService(chatRepo, tradeRepo, userRepo, responder, service.NewChatHub()),
		Version:       Version,
	}

	// Destructive reset is opt-in and only allowed in debug mode
	if cfg.Server.DevRoutes {
		deps.Dev = service.NewDevService(userRepo, tradeRepo, notificationRepo, chatRepo, tradeCache)
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = middleware.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	}

	router := handler.NewRouter(deps)

	var expiryWorker *worker.ExpiryWorker
	if cfg.Reminder.Enabled {
		expiryWorker = worker.NewExpiryWorker(deps.Trades, time.Duration(cfg.Reminder.IntervalSeconds)*time.Second)
		go expiryWorker.Start()
	}

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		middleware.LogInfo("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.LogInfo("Shutting down server...")

	if expiryWorker != nil {
		expiryWorker.Stop()
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.LogError("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			middleware.LogError("Error closing Redis connection: %v", err)
		}
	}

	if err := database.Close(db); err != nil {
		middleware.LogError("Error closing database: %v", err)
	}

	middleware.LogInfo("Server exited properly")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// initAvatarStore returns nil when storage is disabled, which turns the
// avatar routes off.
func initAvatarStore(cfg *config.Config) (storage.AvatarStore, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
