package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/HyperBlockHQ/guildpulse/config"
	"github.com/HyperBlockHQ/guildpulse/internal/model"
)

// Client caches guild analytics snapshots so read-heavy callers (guild
// cards, exchange previews) do not hit postgres for every lookup.
type Client struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{
		client: rdb,
		config: cfg,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func analyticsKey(guildID string) string {
	return fmt.Sprintf("guild:%s:analytics", guildID)
}

// SetGuildAnalytics caches a guild's analytics record.
func (c *Client) SetGuildAnalytics(ctx context.Context, guildID string, analytics *model.GuildAnalytics, ttl time.Duration) error {
	bytes, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to serialize analytics for guild %s: %w", guildID, err)
	}
	if err := c.client.Set(ctx, analyticsKey(guildID), bytes, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analytics for guild %s: %w", guildID, err)
	}
	return nil
}

// GetGuildAnalytics returns the cached analytics record, or (nil, nil) on
// a cache miss.
func (c *Client) GetGuildAnalytics(ctx context.Context, guildID string) (*model.GuildAnalytics, error) {
	raw, err := c.client.Get(ctx, analyticsKey(guildID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached analytics for guild %s: %w", guildID, err)
	}

	var analytics model.GuildAnalytics
	if err := json.Unmarshal([]byte(raw), &analytics); err != nil {
		return nil, fmt.Errorf("failed to decode cached analytics for guild %s: %w", guildID, err)
	}
	return &analytics, nil
}

// InvalidateGuildAnalytics drops the cached record after an exchange
// mutates the point pools.
func (c *Client) InvalidateGuildAnalytics(ctx context.Context, guildID string) error {
	return c.client.Del(ctx, analyticsKey(guildID)).Err()
}
