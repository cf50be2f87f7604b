package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

// AuthHandler handles authentication API requests
type AuthHandler struct {
	authService *service.AuthService
	metrics     *middleware.Metrics
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, metrics *middleware.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     metrics,
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	session, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	h.metrics.UserRegistered()

	response.Created(c, "Account created successfully!", gin.H{
		"user":  session.User,
		"token": session.Token,
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	response.SuccessMessage(c, "Login successful!", gin.H{
		"user":  session.User,
		"token": session.Token,
	})
}

// Me returns the signed-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "me", err)
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Logout marks the signed-in user offline
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, "logout", err)
		return
	}
	response.SuccessMessage(c, "Logged out successfully", nil)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", authMiddleware, h.Me)
		auth.POST("/logout", authMiddleware, h.Logout)
	}
}
