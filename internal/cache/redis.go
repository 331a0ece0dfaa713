package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/ledger-dashboard/internal/config"
	"github.com/rickgao/ledger-dashboard/internal/model"
)

// UpdateSource yields updates until closed. Implemented by router.RingBuffer.
type UpdateSource interface {
	Receive() (model.MarketUpdate, bool)
}

// Entry is the cached JSON value.
type Entry struct {
	Market     model.PricePoint `json:"market"`
	Display    string           `json:"display"`
	ObservedAt time.Time        `json:"observed_at"`
}

// Key returns the Redis key of a chain's market record.
func Key(org, repo string) string {
	return fmt.Sprintf("dashboard:%s/%s:market", org, repo)
}

// RedisCache stores the latest populated record with a TTL. The key is
// removed while the market is absent, so readers treat a miss as absent.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	unit   string
	logger *slog.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg config.CacheConfig, key, unit string, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		key:    key,
		ttl:    cfg.TTL,
		unit:   unit,
		logger: logger,
	}, nil
}

// Ping verifies the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// HandleUpdate writes a populated record or deletes the key when absent.
func (c *RedisCache) HandleUpdate(ctx context.Context, u model.MarketUpdate) error {
	entry, ok := EntryFor(u, c.unit)
	if !ok {
		if err := c.client.Del(ctx, c.key).Err(); err != nil {
			return fmt.Errorf("delete market record: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal market record: %w", err)
	}

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set market record: %w", err)
	}
	return nil
}

// Run applies every update from src until it is closed. Each write is
// bounded by timeout; failures are logged and the next update retries.
func (c *RedisCache) Run(ctx context.Context, src UpdateSource, timeout time.Duration) {
	for {
		u, ok := src.Receive()
		if !ok {
			return
		}

		writeCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := c.HandleUpdate(writeCtx, u); err != nil {
			c.logger.Warn("cache update failed", "key", c.key, "error", err)
		}
		cancel()
	}
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// EntryFor builds the cached value for u, or false when u is absent.
func EntryFor(u model.MarketUpdate, unit string) (Entry, bool) {
	if u.Point == nil {
		return Entry{}, false
	}
	return Entry{
		Market:     *u.Point,
		Display:    u.Point.Display(unit),
		ObservedAt: u.ObservedAt.UTC(),
	}, true
}
