// Package cache keeps seat categories in Redis. Categories change only through
// administration, so a short TTL is the only invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

type CategoryCache interface {
	GetCategories(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error)
	SetCategories(ctx context.Context, eventID uuid.UUID, categories []*entity.SeatCategory) error
}

type redisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCategoryCache(client *redis.Client, ttl time.Duration, log *zap.Logger) CategoryCache {
	if client == nil {
		return Disabled{}
	}
	return &redisCategoryCache{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("cache", "category")),
	}
}

func CategoryKey(eventID uuid.UUID) string {
	return "seat_categories:" + eventID.String()
}

func (c *redisCategoryCache) GetCategories(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error) {
	val, err := c.client.Get(ctx, CategoryKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get categories %s: %w", eventID, err)
	}

	var out []*entity.SeatCategory
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, fmt.Errorf("cache unmarshal categories %s: %w", eventID, err)
	}
	return out, nil
}

func (c *redisCategoryCache) SetCategories(ctx context.Context, eventID uuid.UUID, categories []*entity.SeatCategory) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("cache marshal categories %s: %w", eventID, err)
	}
	if err := c.client.Set(ctx, CategoryKey(eventID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set categories %s: %w", eventID, err)
	}
	return nil
}

// Disabled always misses.
type Disabled struct{}

func (Disabled) GetCategories(context.Context, uuid.UUID) ([]*entity.SeatCategory, error) {
	return nil, ErrCacheMiss
}

func (Disabled) SetCategories(context.Context, uuid.UUID, []*entity.SeatCategory) error {
	return nil
}

// NewRedisClient connects to Redis and pings it. It returns nil when no
// address is configured or the server cannot be reached, and callers run
// without a cache.
func NewRedisClient(ctx context.Context, config utils.RedisConfig, log *zap.Logger) *redis.Client {
	if config.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, category cache disabled", zap.Error(err), zap.String("addr", config.Addr))
		_ = client.Close()
		return nil
	}
	return client
}
