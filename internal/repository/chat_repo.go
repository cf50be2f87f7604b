package repository

import (
	"context"
	"sync"

	"github.com/tradehub/internal/models"
	"gorm.io/gorm"
)

// ChatRepository handles trade conversation data access
type ChatRepository struct {
	db *gorm.DB
	mu sync.Mutex // guards seq assignment
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append stores a message at the end of its trade's conversation and
// assigns the next sequence number
func (r *ChatRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct {
			Seq int64
		}
		if err := tx.Model(&models.ChatMessage{}).
			Select("COALESCE(MAX(seq), 0) as seq").
			Where("trade_id = ?", msg.TradeID).
			Scan(&last).Error; err != nil {
			return err
		}
		msg.Seq = last.Seq + 1
		return tx.Create(msg).Error
	})
}

// ListByTrade retrieves the conversation of a trade in send order
func (r *ChatRepository) ListByTrade(ctx context.Context, tradeID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	result := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("seq ASC").
		Find(&messages)
	return messages, result.Error
}

// CountByTrade counts the messages of a trade conversation
func (r *ChatRepository) CountByTrade(ctx context.Context, tradeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("trade_id = ?", tradeID).Count(&count).Error
	return count, err
}

// DeleteAll removes every chat message
func (r *ChatRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.ChatMessage{}).Error
}
