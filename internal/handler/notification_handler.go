package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

// NotificationHandler handles notification API requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications returns the signed-in user's notifications, newest first
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	notifications, err := h.notificationService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "list notifications", err)
		return
	}
	response.Success(c, gin.H{"notifications": notifications})
}

// UnreadCount returns how many notifications are unread
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "unread count", err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// MarkRead marks one of the signed-in user's notifications as read
// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, "mark notification read", err)
		return
	}
	response.SuccessMessage(c, "Notification marked as read", nil)
}

// MarkAllRead marks all of the signed-in user's notifications as read
// PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if _, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, "mark all notifications read", err)
		return
	}
	response.SuccessMessage(c, "All notifications marked as read", nil)
}

// CreateNotification sends a notification to any existing user
// POST /api/notifications
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}

	notification, err := h.notificationService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "create notification", err)
		return
	}
	response.Created(c, "", gin.H{"notification": notification})
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	notifications := rg.Group("/notifications")
	notifications.Use(authMiddleware)
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/read-all", h.MarkAllRead)
		notifications.PATCH("/:id/read", h.MarkRead)
		notifications.POST("", h.CreateNotification)
	}
}
