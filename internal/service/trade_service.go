package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/pkg/keygen"
)

// MaxExpiryDays bounds how long a trade post may stay open
const MaxExpiryDays = 365

// TradeService handles trade posts
type TradeService struct {
	tradeRepo     *repository.TradeRepository
	userRepo      *repository.UserRepository
	notifications *NotificationService
	cache         TradeCache
	now           func() time.Time
}

// NewTradeService creates a new TradeService. A nil cache disables caching.
func NewTradeService(
	tradeRepo *repository.TradeRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	cache TradeCache,
) *TradeService {
	if cache == nil {
		cache = NoopTradeCache{}
	}
	return &TradeService{
		tradeRepo:     tradeRepo,
		userRepo:      userRepo,
		notifications: notifications,
		cache:         cache,
		now:           time.Now,
	}
}

// CreateTradeRequest represents a new trade post.
// ExpiryDays is a number of days, a numeric string, or "never".
type CreateTradeRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Giving      []models.Item   `json:"giving"`
	Wanting     []models.Item   `json:"wanting"`
	IsUrgent    bool            `json:"isUrgent"`
	ExpiryDays  json.RawMessage `json:"expiryDays"`
	Tags        []string        `json:"tags"`
}

// Create stores a trade post for authorID and notifies the author
func (s *TradeService) Create(ctx context.Context, authorID string, req *CreateTradeRequest) (*models.TradePost, error) {
	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	switch {
	case title == "":
		return nil, invalid("Add a trade title")
	case utf8.RuneCountInString(title) > 200:
		return nil, invalid("Trade title must be at most 200 characters long")
	case description == "":
		return nil, invalid("Add a description")
	case len(req.Giving) == 0:
		return nil, invalid("Select at least one item you're giving")
	case len(req.Wanting) == 0:
		return nil, invalid("Select at least one item you want")
	}

	giving, err := normalizeItems(req.Giving)
	if err != nil {
		return nil, err
	}
	wanting, err := normalizeItems(req.Wanting)
	if err != nil {
		return nil, err
	}

	days, err := parseExpiryDays(req.ExpiryDays)
	if err != nil {
		return nil, err
	}

	now := timestamp(s.now)
	trade := &models.TradePost{
		ID:          keygen.NewID(),
		AuthorID:    author.ID,
		Author:      author.Public(),
		Title:       title,
		Description: description,
		Giving:      giving,
		Wanting:     wanting,
		Status:      models.TradeStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsUrgent:    req.IsUrgent,
		Tags:        NormalizeTags(req.Tags),
	}
	if days > 0 {
		expiresAt := now.Add(time.Duration(days) * 24 * time.Hour)
		trade.ExpiresAt = &expiresAt
	}

	posted := s.notifications.build(author.ID,
		"Trade Posted Successfully!",
		fmt.Sprintf("Your trade \"%s\" is now live and visible to other traders.", title),
		models.NotificationSystem, "")
	if err := s.tradeRepo.CreateWithNotification(ctx, trade, posted); err != nil {
		return nil, err
	}

	// the feed is only touched once both rows are committed
	s.cache.Invalidate(ctx)
	s.cache.PublishCreated(ctx, trade)

	return trade, nil
}

// ListAll returns every trade post, newest first
func (s *TradeService) ListAll(ctx context.Context) ([]models.TradePost, error) {
	if trades, ok := s.cache.GetAll(ctx); ok {
		return trades, nil
	}

	// read before the query so a create committing meanwhile wins
	generation, cacheable := s.cache.Generation(ctx)

	trades, err := s.tradeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.SetAll(ctx, generation, trades)
	}
	return trades, nil
}

// ListByAuthor returns the trade posts created by a user
func (s *TradeService) ListByAuthor(ctx context.Context, authorID string) ([]models.TradePost, error) {
	return s.tradeRepo.ListByAuthor(ctx, authorID)
}

// Get returns one trade post
func (s *TradeService) Get(ctx context.Context, id string) (*models.TradePost, error) {
	return s.tradeRepo.GetByID(ctx, id)
}

func normalizeItems(items []models.Item) ([]models.Item, error) {
	out := make([]models.Item, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Category = strings.TrimSpace(item.Category)
		if item.Name == "" {
			return nil, invalid("Every item needs a name")
		}
		if !item.Rarity.Valid() {
			return nil, invalid(fmt.Sprintf("Unknown item rarity %q", item.Rarity))
		}
		if item.Value != nil && *item.Value < 0 {
			return nil, invalid("Item value must not be negative")
		}
		if item.ID == "" {
			item.ID = keygen.NewID()
		}
		out[i] = item
	}
	return out, nil
}

// parseExpiryDays returns 0 for no expiry. Fractional days are truncated
// and zero means the post never expires.
func parseExpiryDays(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, invalid("Expiry must be a number of days or \"never\"")
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.EqualFold(text, "never") {
			return 0, nil
		}
	} else {
		text = string(raw)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalid("Expiry must be a number of days or \"never\"")
	}
	value = math.Trunc(value)
	if value == 0 {
		return 0, nil
	}
	if value < 1 || value > MaxExpiryDays {
		return 0, invalid(fmt.Sprintf("Expiry must be between 1 and %d days", MaxExpiryDays))
	}
	return int(value), nil
}

// NormalizeTags trims and lower-cases tags, dropping empty ones
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
