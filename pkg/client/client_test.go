package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub/internal/config"
	"github.com/tradehub/internal/database/dbtest"
	"github.com/tradehub/internal/handler"
	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/client"
	"github.com/tradehub/pkg/crypto"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	crypto.Cost = bcrypt.MinCost
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := dbtest.New(t)

	userRepo := repository.NewUserRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notifications := service.NewNotificationService(notificationRepo, userRepo)

	router := handler.NewRouter(handler.Dependencies{
		Auth:          service.NewAuthService(userRepo, config.JWTConfig{Secret: "client-test", ExpireHours: 1}),
		Users:         service.NewUserService(userRepo, nil, 0),
		Trades:        service.NewTradeService(tradeRepo, userRepo, notifications, nil),
		Notifications: notifications,
		Chat:          service.NewChatService(chatRepo, tradeRepo, userRepo, nil, nil),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func register(t *testing.T, c *client.Client, username string) *client.Session {
	t.Helper()
	s, err := c.Register(context.Background(), client.RegisterRequest{
		Username:        username,
		DisplayName:     username + " Display",
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return s
}

func tradeRequest(title string) client.CreateTradeRequest {
	value := 40.0
	return client.CreateTradeRequest{
		Title:       title,
		Description: "Fair swap",
		Giving:      []models.Item{{Name: "Dragon Sword", Rarity: models.RarityLegendary, Category: "weapon", Value: &value}},
		Wanting:     []models.Item{{Name: "Phoenix Shield", Rarity: models.RarityEpic, Category: "armor"}},
		ExpiryDays:  7,
		Tags:        []string{"pvp"},
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL + "/")

	require.NoError(t, c.Health(ctx))

	s := register(t, c, "alice")
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, s.Token, c.Token())
	assert.Equal(t, "alice@example.com", s.User.Email)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, me.ID)
	assert.True(t, me.IsOnline)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())

	_, err = c.Me(ctx)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Access token required", apiErr.Message)

	_, err = c.Login(ctx, "alice", "wrong")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid username or password", apiErr.Message)

	s, err = c.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, s.Token, c.Token())

	// a saved token carries over to a new client
	again := client.New(srv.URL, client.WithToken(s.Token), client.WithHTTPClient(srv.Client()))
	me, err = again.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestTradesAndNotifications(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	alice := client.New(srv.URL)
	bob := client.New(srv.URL)
	aliceSession := register(t, alice, "alice")
	bobSession := register(t, bob, "bob")

	trade, err := alice.CreateTrade(ctx, tradeRequest("Sword for shield"))
	require.NoError(t, err)
	assert.Equal(t, "Sword for shield", trade.Title)
	assert.NotEmpty(t, trade.Giving[0].ID)
	require.NotNil(t, trade.ExpiresAt)

	_, err = bob.CreateTrade(ctx, client.CreateTradeRequest{Title: "Missing items", Description: "x"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Select at least one item you're giving", apiErr.Message)

	feed, err := bob.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, trade.ID, feed[0].ID)

	mine, err := alice.ListUserTrades(ctx, aliceSession.User.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	got, err := bob.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice Display", got.Author.DisplayName)

	count, err := alice.UnreadCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	n, err := alice.CreateNotification(ctx, client.CreateNotificationRequest{
		UserID:  bobSession.User.ID,
		Title:   "Offer",
		Message: "alice wants to trade",
		Type:    models.NotificationTrade,
	})
	require.NoError(t, err)

	require.NoError(t, bob.MarkRead(ctx, n.ID))
	list, err := bob.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)

	require.NoError(t, alice.MarkAllRead(ctx))
	count, err = alice.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUsersAndChat(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	alice := client.New(srv.URL)
	bob := client.New(srv.URL)
	aliceSession := register(t, alice, "alice")
	register(t, bob, "bob")

	users, err := bob.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	rating := 4.8
	updated, err := bob.UpdateStats(ctx, aliceSession.User.ID, models.StatsPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4.8, updated.Stats.Rating)

	profile, err := bob.GetUser(ctx, aliceSession.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.8, profile.Stats.Rating)

	trade, err := alice.CreateTrade(ctx, tradeRequest("Sword for shield"))
	require.NoError(t, err)

	msg, err := bob.PostMessage(ctx, trade.ID, "Is this still available?")
	require.NoError(t, err)
	assert.Equal(t, "Is this still available?", msg.Content)

	messages, err := alice.ListMessages(ctx, trade.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.ChatMessageSystem, messages[0].Type)
	assert.Equal(t, msg.ID, messages[1].ID)

	_, err = bob.ListMessages(ctx, "missing")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestNonJSONErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := client.New(srv.URL).Health(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "tradehub: HTTP 502", apiErr.Error())
}
