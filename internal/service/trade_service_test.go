package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub/internal/models"
)

func TestTradeCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "alice")

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.trades.now = func() time.Time { return created }

	trade, err := f.trades.Create(ctx, author.ID, tradeRequest("  Sword for shield "))
	require.NoError(t, err)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "Sword for shield", trade.Title)
	assert.Equal(t, models.TradeStatusActive, trade.Status)
	assert.Equal(t, author.ID, trade.Author.ID)
	assert.Equal(t, author.DisplayName, trade.Author.DisplayName)
	assert.Equal(t, []string{"pvp", "rare"}, trade.Tags)
	assert.True(t, created.Equal(trade.CreatedAt))
	assert.True(t, created.Equal(trade.UpdatedAt))
	require.NotNil(t, trade.ExpiresAt)
	assert.True(t, created.Add(7*24*time.Hour).Equal(*trade.ExpiresAt))

	stored, err := f.trades.Get(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.Giving, stored.Giving)
	assert.Equal(t, trade.Wanting, stored.Wanting)

	notifications, err := f.notifications.ListByUser(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Trade Posted Successfully!", notifications[0].Title)
	assert.Equal(t, `Your trade "Sword for shield" is now live and visible to other traders.`, notifications[0].Message)
	assert.Equal(t, models.NotificationSystem, notifications[0].Type)
	assert.False(t, notifications[0].IsRead)
}

func TestTradeCreate_NotificationFailureKeepsNoTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "alice")
	require.NoError(t, f.db.Migrator().DropTable(&models.Notification{}))

	_, err := f.trades.Create(ctx, author.ID, tradeRequest("half posted"))
	require.Error(t, err)

	all, err := f.trades.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTradeCreate_NeverExpires(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "alice")

	req := tradeRequest("no expiry")
	req.ExpiryDays = json.RawMessage(`"never"`)
	trade, err := f.trades.Create(context.Background(), author.ID, req)
	require.NoError(t, err)
	assert.Nil(t, trade.ExpiresAt)
}

func TestTradeCreate_UnknownAuthor(t *testing.T) {
	f := newFixture(t)
	_, err := f.trades.Create(context.Background(), "missing", tradeRequest("orphan"))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTradeCreate_Validation(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "alice")

	tests := []struct {
		name    string
		mutate  func(r *CreateTradeRequest)
		message string
	}{
		{"empty title", func(r *CreateTradeRequest) { r.Title = "   " }, "Add a trade title"},
		{"empty description", func(r *CreateTradeRequest) { r.Description = "" }, "Add a description"},
		{"nothing given", func(r *CreateTradeRequest) { r.Giving = nil }, "Select at least one item you're giving"},
		{"nothing wanted", func(r *CreateTradeRequest) { r.Wanting = []models.Item{} }, "Select at least one item you want"},
		{"unknown rarity", func(r *CreateTradeRequest) { r.Giving[0].Rarity = "shiny" }, `Unknown item rarity "shiny"`},
		{"unnamed item", func(r *CreateTradeRequest) { r.Wanting[0].Name = " " }, "Every item needs a name"},
		{"bad expiry", func(r *CreateTradeRequest) { r.ExpiryDays = json.RawMessage(`"soon"`) }, `Expiry must be a number of days or "never"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tradeRequest("valid")
			tt.mutate(req)

			_, err := f.trades.Create(context.Background(), author.ID, req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	trades, err := f.trades.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestParseExpiryDays(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"null", 0, false},
		{`"never"`, 0, false},
		{`"Never"`, 0, false},
		{`""`, 0, false},
		{`"3"`, 3, false},
		{`" 14 "`, 14, false},
		{"30", 30, false},
		{"0", 0, false},
		{`"0"`, 0, false},
		{"0.4", 0, false},
		{"7.0", 7, false},
		{"2.5", 2, false},
		{`"7.5"`, 7, false},
		{"-2", 0, true},
		{"-0.5", 0, false},
		{"366", 0, true},
		{"365.9", 365, false},
		{`"NaN"`, 0, true},
		{`"Inf"`, 0, true},
		{`"tomorrow"`, 0, true},
		{"true", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseExpiryDays(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"pvp", "trading card"}, NormalizeTags([]string{" PvP", "", "  ", "Trading Card "}))
	assert.Equal(t, []string{}, NormalizeTags(nil))
}

func TestTradeListAll_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	f.trades.now = stepClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), time.Second)

	t1, err := f.trades.Create(ctx, alice.ID, tradeRequest("t1"))
	require.NoError(t, err)
	t2, err := f.trades.Create(ctx, bob.ID, tradeRequest("t2"))
	require.NoError(t, err)
	t3, err := f.trades.Create(ctx, alice.ID, tradeRequest("t3"))
	require.NoError(t, err)

	all, err := f.trades.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{t3.ID, t2.ID, t1.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := f.trades.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.trades.ListByAuthor(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func newRedisCache(t *testing.T) (*RedisTradeCache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTradeCache(client, 30*time.Second), mr, client
}

func TestTradeListAll_ReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache, mr, client := newRedisCache(t)
	f.trades = NewTradeService(f.tradeRepo, f.userRepo, f.notifications, cache)

	alice := f.register(t, "alice")
	first, err := f.trades.Create(ctx, alice.ID, tradeRequest("first"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(tradeCacheKey))

	all, err := f.trades.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, mr.Exists(tradeCacheKey))
	assert.Equal(t, 30*time.Second, mr.TTL(tradeCacheKey))

	cached, ok := cache.GetAll(ctx)
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, first.ID, cached[0].ID)
	assert.Equal(t, alice.ID, cached[0].AuthorID)
	assert.Equal(t, first.Giving, cached[0].Giving)

	sub := client.Subscribe(ctx, TradeCreatedChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	second, err := f.trades.Create(ctx, alice.ID, tradeRequest("second"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(tradeCacheKey), "create must invalidate the feed")

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, second.ID, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no trade_created message")
	}

	all, err = f.trades.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRedisTradeCache_Failures(t *testing.T) {
	ctx := context.Background()
	cache, mr, _ := newRedisCache(t)

	require.NoError(t, mr.Set(tradeCacheKey, "{not json"))
	_, ok := cache.GetAll(ctx)
	assert.False(t, ok)
	assert.False(t, mr.Exists(tradeCacheKey))

	// unreachable server: every call degrades to a miss
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer down.Close()
	broken := NewRedisTradeCache(down, time.Second)

	_, ok = broken.GetAll(ctx)
	assert.False(t, ok)
	_, ok = broken.Generation(ctx)
	assert.False(t, ok)
	broken.SetAll(ctx, 0, []models.TradePost{{ID: "t1"}})
	broken.Invalidate(ctx)
	broken.PublishCreated(ctx, &models.TradePost{ID: "t1"})
}

func TestRedisTradeCache_SetAllSkipsOldGeneration(t *testing.T) {
	ctx := context.Background()
	cache, mr, _ := newRedisCache(t)

	gen, ok := cache.Generation(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 0, gen)

	cache.Invalidate(ctx)
	cache.SetAll(ctx, gen, []models.TradePost{{ID: "old"}})
	assert.False(t, mr.Exists(tradeCacheKey))

	gen, ok = cache.Generation(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 1, gen)
	cache.SetAll(ctx, gen, []models.TradePost{{ID: "fresh"}})
	cached, ok := cache.GetAll(ctx)
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "fresh", cached[0].ID)
}

// refillHook runs beforeSet once, between the feed query and the cache write
type refillHook struct {
	*RedisTradeCache
	beforeSet func()
}

func (h *refillHook) SetAll(ctx context.Context, generation int64, trades []models.TradePost) {
	if h.beforeSet != nil {
		run := h.beforeSet
		h.beforeSet = nil
		run()
	}
	h.RedisTradeCache.SetAll(ctx, generation, trades)
}

func TestTradeListAll_CreateDuringRefill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache, _, _ := newRedisCache(t)
	hook := &refillHook{RedisTradeCache: cache}
	f.trades = NewTradeService(f.tradeRepo, f.userRepo, f.notifications, hook)

	alice := f.register(t, "alice")
	var created *models.TradePost
	hook.beforeSet = func() {
		var err error
		created, err = f.trades.Create(ctx, alice.ID, tradeRequest("raced"))
		require.NoError(t, err)
	}

	all, err := f.trades.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	all, err = f.trades.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}
