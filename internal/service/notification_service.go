package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/pkg/keygen"
)

// NotificationService handles per-user notifications
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo *repository.NotificationRepository, userRepo *repository.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		now:              time.Now,
	}
}

// CreateNotificationRequest represents a request to notify a user
type CreateNotificationRequest struct {
	UserID    string                  `json:"userId"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      models.NotificationType `json:"type"`
	ActionURL string                  `json:"actionUrl"`
}

// Create validates the request and stores a notification for an existing user
func (s *NotificationService) Create(ctx context.Context, req *CreateNotificationRequest) (*models.Notification, error) {
	userID := strings.TrimSpace(req.UserID)
	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)

	switch {
	case userID == "":
		return nil, invalid("User ID is required")
	case title == "":
		return nil, invalid("Title is required")
	case message == "":
		return nil, invalid("Message is required")
	case !req.Type.Valid():
		return nil, invalid("Notification type must be one of trade, review, system")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return s.notify(ctx, userID, title, message, req.Type, strings.TrimSpace(req.ActionURL))
}

func (s *NotificationService) notify(ctx context.Context, userID, title, message string, typ models.NotificationType, actionURL string) (*models.Notification, error) {
	notification := s.build(userID, title, message, typ, actionURL)
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return notification, nil
}

// build returns an unread notification stamped with the current time
func (s *NotificationService) build(userID, title, message string, typ models.NotificationType, actionURL string) *models.Notification {
	return &models.Notification{
		ID:        keygen.NewID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		IsRead:    false,
		CreatedAt: timestamp(s.now),
		ActionURL: actionURL,
	}
}

// ListByUser returns the user's notifications, newest first
func (s *NotificationService) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

// UnreadCount returns how many of the user's notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
