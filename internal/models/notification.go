package models

import (
	"time"
)

// NotificationType represents the category of a notification
type NotificationType string

const (
	NotificationTrade  NotificationType = "trade"
	NotificationReview NotificationType = "review"
	NotificationSystem NotificationType = "system"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTrade, NotificationReview, NotificationSystem:
		return true
	}
	return false
}

// Notification is a per-user message produced by trade activity
type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"index;size:36;not null" json:"userId"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"size:20;not null" json:"type"`
	IsRead    bool             `gorm:"index;not null;default:false" json:"isRead"`
	CreatedAt time.Time        `gorm:"index;not null" json:"createdAt"`
	ActionURL string           `gorm:"size:255" json:"actionUrl,omitempty"`
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
