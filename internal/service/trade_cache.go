package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradehub/internal/models"
)

const (
	tradeCacheKey      = "trades:all"
	tradeGenerationKey = "trades:generation"

	// TradeCreatedChannel receives the id of every newly created trade
	TradeCreatedChannel = "trade_created"
)

// TradeCache holds the newest-first trade feed between writes. Failures are
// logged and read as misses; the database stays authoritative.
//
// Every Invalidate advances the generation. A feed read from the database
// is stored with the generation observed before that read, and SetAll drops
// it when the generation has moved on since.
type TradeCache interface {
	GetAll(ctx context.Context) ([]models.TradePost, bool)
	Generation(ctx context.Context) (int64, bool)
	SetAll(ctx context.Context, generation int64, trades []models.TradePost)
	Invalidate(ctx context.Context)
	PublishCreated(ctx context.Context, trade *models.TradePost)
}

// RedisTradeCache stores the trade feed as one JSON value in Redis
type RedisTradeCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisTradeCache creates a RedisTradeCache
func NewRedisTradeCache(redisClient *redis.Client, ttl time.Duration) *RedisTradeCache {
	return &RedisTradeCache{redis: redisClient, ttl: ttl}
}

// GetAll returns the cached feed
func (c *RedisTradeCache) GetAll(ctx context.Context) ([]models.TradePost, bool) {
	data, err := c.redis.Get(ctx, tradeCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[TradeCache] Failed to read feed: %v", err)
		}
		return nil, false
	}

	var trades []models.TradePost
	if err := json.Unmarshal(data, &trades); err != nil {
		log.Printf("[TradeCache] Dropping undecodable feed: %v", err)
		c.Invalidate(ctx)
		return nil, false
	}
	// AuthorID is not part of the JSON form
	for i := range trades {
		trades[i].AuthorID = trades[i].Author.ID
	}
	return trades, true
}

// Generation returns the current feed generation
func (c *RedisTradeCache) Generation(ctx context.Context) (int64, bool) {
	gen, err := readGeneration(ctx, c.redis)
	if err != nil {
		log.Printf("[TradeCache] Failed to read generation: %v", err)
		return 0, false
	}
	return gen, true
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter) (int64, error) {
	gen, err := cmd.Get(ctx, tradeGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetAll replaces the cached feed unless an Invalidate happened after
// generation was read
func (c *RedisTradeCache) SetAll(ctx context.Context, generation int64, trades []models.TradePost) {
	data, err := json.Marshal(trades)
	if err != nil {
		log.Printf("[TradeCache] Failed to encode feed: %v", err)
		return
	}

	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleFeed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tradeCacheKey, data, c.ttl)
			return nil
		})
		return err
	}, tradeGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFeed), errors.Is(err, redis.TxFailedErr):
		log.Printf("[TradeCache] Skipped storing feed of generation %d, a newer write exists", generation)
	default:
		log.Printf("[TradeCache] Failed to store feed: %v", err)
	}
}

var errStaleFeed = errors.New("trade feed generation changed")

// Invalidate drops the cached feed and advances the generation
func (c *RedisTradeCache) Invalidate(ctx context.Context) {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, tradeGenerationKey)
		pipe.Del(ctx, tradeCacheKey)
		return nil
	})
	if err != nil {
		log.Printf("[TradeCache] Failed to invalidate feed: %v", err)
	}
}

// PublishCreated announces a new trade on TradeCreatedChannel
func (c *RedisTradeCache) PublishCreated(ctx context.Context, trade *models.TradePost) {
	if err := c.redis.Publish(ctx, TradeCreatedChannel, trade.ID).Err(); err != nil {
		log.Printf("[TradeCache] Failed to publish trade %s: %v", trade.ID, err)
	}
}

// NoopTradeCache is used when Redis is disabled
type NoopTradeCache struct{}

func (NoopTradeCache) GetAll(context.Context) ([]models.TradePost, bool) { return nil, false }
func (NoopTradeCache) Generation(context.Context) (int64, bool) { return 0, false }
func (NoopTradeCache) SetAll(context.Context, int64, []models.TradePost) {}
func (NoopTradeCache) Invalidate(context.Context) {}
func (NoopTradeCache) PublishCreated(context.Context, *models.TradePost) {}
