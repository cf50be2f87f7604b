package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradehub/internal/config"
	"github.com/tradehub/internal/database/dbtest"
	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/internal/storage"
	"github.com/tradehub/pkg/crypto"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	crypto.Cost = bcrypt.MinCost
}

const testSecret = "test-secret"

type fixture struct {
	db *gorm.DB

	userRepo         *repository.UserRepository
	tradeRepo        *repository.TradeRepository
	notificationRepo *repository.NotificationRepository
	chatRepo         *repository.ChatRepository

	auth          *AuthService
	users         *UserService
	notifications *NotificationService
	trades        *TradeService
	chat          *ChatService
	avatars       *storage.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)

	f := &fixture{
		db:               db,
		userRepo:         repository.NewUserRepository(db),
		tradeRepo:        repository.NewTradeRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		chatRepo:         repository.NewChatRepository(db),
		avatars:          storage.NewMemoryStore(),
	}
	f.auth = NewAuthService(f.userRepo, config.JWTConfig{Secret: testSecret, ExpireHours: 168})
	f.users = NewUserService(f.userRepo, f.avatars, 1<<10)
	f.notifications = NewNotificationService(f.notificationRepo, f.userRepo)
	f.trades = NewTradeService(f.tradeRepo, f.userRepo, f.notifications, nil)
	f.chat = NewChatService(f.chatRepo, f.tradeRepo, f.userRepo, nil, nil)
	return f
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	session, err := f.auth.Register(context.Background(), &RegisterRequest{
		Username:        username,
		DisplayName:     username + " Display",
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return session.User
}

func tradeRequest(title string) *CreateTradeRequest {
	value := 25.0
	return &CreateTradeRequest{
		Title:       title,
		Description: "Looking for a fair swap",
		Giving:      []models.Item{{ID: "g1", Name: "Dragon Sword", Rarity: models.RarityLegendary, Category: "weapon", Value: &value}},
		Wanting:     []models.Item{{ID: "w1", Name: "Phoenix Shield", Rarity: models.RarityEpic, Category: "armor"}},
		ExpiryDays:  json.RawMessage(`"7"`),
		Tags:        []string{" PvP ", "", "Rare"},
	}
}

// stepClock returns a clock that advances by step on every call
func stepClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}
