package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, zap.NewNop()), mr
}

func TestRedisCache_RoundTripWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "k", entry{Name: "ana", Score: 3}, time.Minute)

	var got entry
	require.True(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, entry{Name: "ana", Score: 3}, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.GetJSON(ctx, "k", &got))
}

func TestRedisCache_Corrupt(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("k", "not json"))

	var got entry
	assert.False(t, c.GetJSON(context.Background(), "k", &got))
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, LeaderboardKey("", "all"), 1, 0)
	c.SetJSON(ctx, LeaderboardKey("ES", "week"), 2, 0)
	c.SetJSON(ctx, DailyWordKey("2026-10-14", "es"), 3, 0)

	c.DeletePrefix(ctx, LeaderboardPrefix())

	assert.False(t, mr.Exists("leaderboard:all:all"))
	assert.False(t, mr.Exists("leaderboard:es:week"))
	assert.True(t, mr.Exists("daily-word:2026-10-14:es"))
}

func TestRedisCache_FailOpen(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got entry
	assert.False(t, c.GetJSON(context.Background(), "k", &got))
	c.SetJSON(context.Background(), "k", entry{}, 0)
}

func TestRedisCache_NilIsDisabled(t *testing.T) {
	var c *RedisCache
	ctx := context.Background()

	c.SetJSON(ctx, "k", 1, 0)
	var v int
	assert.False(t, c.GetJSON(ctx, "k", &v))
	c.Delete(ctx, "k")
	c.DeletePrefix(ctx, "k")
	assert.Nil(t, c.Client())
	assert.NoError(t, c.Close())
}
