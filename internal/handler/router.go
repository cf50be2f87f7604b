package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/service"
)

// Dependencies are the services the HTTP API is built on.
// Metrics and Dev may be nil.
type Dependencies struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Trades        *service.TradeService
	Notifications *service.NotificationService
	Chat          *service.ChatService
	Dev           *service.DevService
	Metrics       *middleware.Metrics
	Version       string
}

// NewRouter assembles the gin engine serving the API under /api
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(deps.Metrics.Middleware())
	router.Use(middleware.CORSMiddleware())

	system := NewSystemHandler(deps.Dev, deps.Version)
	router.GET("/health", system.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	api.Use(middleware.AuditLoggerMiddleware())
	{
		authMiddleware := middleware.AuthMiddleware(deps.Auth)

		system.RegisterRoutes(api)
		NewAuthHandler(deps.Auth, deps.Metrics).RegisterRoutes(api, authMiddleware)
		NewUserHandler(deps.Users).RegisterRoutes(api, authMiddleware)
		NewTradeHandler(deps.Trades, deps.Metrics).RegisterRoutes(api, authMiddleware)
		NewChatHandler(deps.Chat, deps.Metrics).RegisterRoutes(api, authMiddleware)
		NewNotificationHandler(deps.Notifications).RegisterRoutes(api, authMiddleware)
	}

	return router
}
