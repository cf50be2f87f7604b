package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

// UserHandler handles user profile API requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns every user without contact details
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	response.Success(c, gin.H{"users": models.PublicUsers(users)})
}

// GetUser returns one user without contact details
// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get user", err)
		return
	}
	response.Success(c, gin.H{"user": user.Public()})
}

// UpdateStats applies a partial stats update
// PATCH /api/users/:id/stats
func (h *UserHandler) UpdateStats(c *gin.Context) {
	var patch models.StatsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidBody(c)
		return
	}

	user, err := h.userService.UpdateStats(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, "update stats", err)
		return
	}
	response.Success(c, gin.H{"user": user.Public()})
}

// UploadAvatar replaces the signed-in user's avatar with the raw image body
// PUT /api/users/me/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	limit := h.userService.MaxAvatarBytes()
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		invalidBody(c)
		return
	}
	if int64(len(data)) > limit {
		response.Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Avatar must be at most %d bytes", limit))
		return
	}

	user, err := h.userService.UploadAvatar(c.Request.Context(), middleware.GetUserID(c), data)
	if err != nil {
		respondError(c, "upload avatar", err)
		return
	}
	response.SuccessMessage(c, "Avatar updated", gin.H{"user": user})
}

// GetAvatar streams a stored avatar image
// GET /api/avatars/*key
func (h *UserHandler) GetAvatar(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	obj, err := h.userService.OpenAvatar(c.Request.Context(), key)
	if err != nil {
		respondError(c, "get avatar", err)
		return
	}
	defer obj.Body.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// RegisterRoutes registers user routes. Avatar routes exist only when
// object storage is configured.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id/stats", authMiddleware, h.UpdateStats)
	}

	if h.userService.AvatarsEnabled() {
		users.PUT("/me/avatar", authMiddleware, h.UploadAvatar)
		rg.GET("/avatars/*key", h.GetAvatar)
	}
}
