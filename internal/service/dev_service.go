package service

import (
	"context"
	"fmt"

	"github.com/tradehub/internal/repository"
)

// DevService resets the stores during development
type DevService struct {
	userRepo         *repository.UserRepository
	tradeRepo        *repository.TradeRepository
	notificationRepo *repository.NotificationRepository
	chatRepo         *repository.ChatRepository
	cache            TradeCache
}

// NewDevService creates a new DevService
func NewDevService(
	userRepo *repository.UserRepository,
	tradeRepo *repository.TradeRepository,
	notificationRepo *repository.NotificationRepository,
	chatRepo *repository.ChatRepository,
	cache TradeCache,
) *DevService {
	if cache == nil {
		cache = NoopTradeCache{}
	}
	return &DevService{
		userRepo:         userRepo,
		tradeRepo:        tradeRepo,
		notificationRepo: notificationRepo,
		chatRepo:         chatRepo,
		cache:            cache,
	}
}

// ClearData deletes every user, trade, notification and chat message
func (s *DevService) ClearData(ctx context.Context) error {
	if err := s.chatRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	if err := s.notificationRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	if err := s.tradeRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear trades: %w", err)
	}
	if err := s.userRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}
