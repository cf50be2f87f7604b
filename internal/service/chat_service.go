package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/pkg/keygen"
)

const (
	// MaxChatMessageLength is the longest accepted chat message, in characters
	MaxChatMessageLength = 1000

	systemSenderName = "TradeHub"
)

// ChatService keeps the conversation attached to each trade post
type ChatService struct {
	chatRepo  *repository.ChatRepository
	tradeRepo *repository.TradeRepository
	userRepo  *repository.UserRepository
	responder Responder
	hub       *ChatHub
	now       func() time.Time

	openMu sync.Mutex // serializes the welcome message check
}

// NewChatService creates a new ChatService. A nil responder never answers.
func NewChatService(
	chatRepo *repository.ChatRepository,
	tradeRepo *repository.TradeRepository,
	userRepo *repository.UserRepository,
	responder Responder,
	hub *ChatHub,
) *ChatService {
	if responder == nil {
		responder = NoopResponder{}
	}
	if hub == nil {
		hub = NewChatHub()
	}
	return &ChatService{
		chatRepo:  chatRepo,
		tradeRepo: tradeRepo,
		userRepo:  userRepo,
		responder: responder,
		hub:       hub,
		now:       time.Now,
	}
}

// List returns a trade's conversation, oldest first. Opening an empty
// conversation writes a system message naming the trade.
func (s *ChatService) List(ctx context.Context, tradeID string) ([]models.ChatMessage, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureWelcome(ctx, trade); err != nil {
		return nil, err
	}
	return s.chatRepo.ListByTrade(ctx, tradeID)
}

func (s *ChatService) ensureWelcome(ctx context.Context, trade *models.TradePost) error {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	count, err := s.chatRepo.CountByTrade(ctx, trade.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = s.append(ctx, &models.ChatMessage{
		TradeID:    trade.ID,
		SenderID:   models.SystemSenderID,
		SenderName: systemSenderName,
		Content:    fmt.Sprintf("Started conversation about: \"%s\"", trade.Title),
		Type:       models.ChatMessageSystem,
	})
	return err
}

// Post appends a message from senderID. When the configured responder
// answers, its reply is stored right after as a message from the author.
func (s *ChatService) Post(ctx context.Context, tradeID, senderID, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, invalid("Message cannot be empty")
	case utf8.RuneCountInString(content) > MaxChatMessageLength:
		return nil, invalid(fmt.Sprintf("Message must be at most %d characters long", MaxChatMessageLength))
	}

	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureWelcome(ctx, trade); err != nil {
		return nil, err
	}

	msg, err := s.append(ctx, &models.ChatMessage{
		TradeID:      tradeID,
		SenderID:     sender.ID,
		SenderName:   sender.DisplayName,
		SenderAvatar: sender.Avatar,
		Content:      content,
		Type:         models.ChatMessageText,
	})
	if err != nil {
		return nil, err
	}

	if reply, ok := s.responder.Respond(ctx, trade, msg); ok {
		_, err := s.append(ctx, &models.ChatMessage{
			TradeID:      tradeID,
			SenderID:     trade.Author.ID,
			SenderName:   trade.Author.DisplayName,
			SenderAvatar: trade.Author.Avatar,
			Content:      reply,
			Type:         models.ChatMessageText,
		})
		if err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (s *ChatService) append(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	msg.ID = keygen.NewID()
	msg.CreatedAt = timestamp(s.now)
	if err := s.chatRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	s.hub.Publish(*msg)
	return msg, nil
}

// Subscribe streams messages appended to a trade's conversation from now on
func (s *ChatService) Subscribe(ctx context.Context, tradeID string) (<-chan models.ChatMessage, func(), error) {
	if _, err := s.tradeRepo.GetByID(ctx, tradeID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(tradeID)
	return ch, cancel, nil
}
