package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache stores JSON documents in Redis. A nil *RedisCache is valid
// and behaves as an always-empty cache, so callers never branch on
// whether Redis is configured.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(ctx context.Context, redisURL string, log *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &RedisCache{client: client, log: log}, nil
}

// New wraps an existing client.
func New(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

// Client exposes the underlying client, or nil when the cache is disabled.
func (c *RedisCache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// GetJSON loads key into v. It reports false on a miss, a decode problem,
// or a Redis failure; failures are logged and otherwise ignored.
func (c *RedisCache) GetJSON(ctx context.Context, key string, v any) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores v under key. A zero ttl means no expiration.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// DeletePrefix removes every key starting with prefix.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	c.Delete(ctx, keys...)
}

func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

const (
	leaderboardPrefix = "leaderboard:"
	dailyWordPrefix   = "daily-word:"
)

// LeaderboardKey formats "leaderboard:<language|all>:<period>".
func LeaderboardKey(language, period string) string {
	if language == "" {
		language = "all"
	}
	return leaderboardPrefix + strings.ToLower(language) + ":" + period
}

// LeaderboardPrefix matches every cached leaderboard.
func LeaderboardPrefix() string { return leaderboardPrefix }

// DailyWordKey formats "daily-word:<day>:<language>".
func DailyWordKey(day, language string) string {
	return dailyWordPrefix + day + ":" + strings.ToLower(language)
}
