package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradehub/internal/models"
	"gorm.io/gorm"
)

// TradeRepository handles trade post data access
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// CreateWithNotification stores a trade post together with the notification
// announcing it. Either both rows are written or neither is.
func (r *TradeRepository) CreateWithNotification(ctx context.Context, trade *models.TradePost, notification *models.Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("create trade: %w", err)
		}
		if err := tx.Create(notification).Error; err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a trade post by ID
func (r *TradeRepository) GetByID(ctx context.Context, id string) (*models.TradePost, error) {
	var trade models.TradePost
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&trade)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, result.Error
	}
	return &trade, nil
}

// ListAll retrieves every trade post, newest first
func (r *TradeRepository) ListAll(ctx context.Context) ([]models.TradePost, error) {
	var trades []models.TradePost
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&trades)
	return trades, result.Error
}

// ListByAuthor retrieves the trade posts created by a user
func (r *TradeRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.TradePost, error) {
	var trades []models.TradePost
	result := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&trades)
	return trades, result.Error
}

// ListExpiringBetween retrieves active trade posts whose expiry falls in (from, to]
func (r *TradeRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.TradePost, error) {
	var trades []models.TradePost
	result := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?",
			models.TradeStatusActive, from, to).
		Order("expires_at ASC").
		Find(&trades)
	return trades, result.Error
}

// DeleteAll removes every trade post
func (r *TradeRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.TradePost{}).Error
}
