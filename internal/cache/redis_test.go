// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, newRedisCache(client, "radiopage:", zerolog.Nop())
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "primary:/indonesia/bbc_indonesian_radio/w172xh267fpn19l", []byte(`{"ok":true}`), 5*time.Minute)

	val, found := c.Get(ctx, "primary:/indonesia/bbc_indonesian_radio/w172xh267fpn19l")
	require.True(t, found)
	assert.JSONEq(t, `{"ok":true}`, string(val))
	assert.True(t, mr.Exists("radiopage:primary:/indonesia/bbc_indonesian_radio/w172xh267fpn19l"), "keys are namespaced")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_GetMissing(t *testing.T) {
	_, c := setupMiniRedis(t)

	val, found := c.Get(context.Background(), "nonexistent")
	assert.False(t, found)
	assert.Nil(t, val)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "ttl-key", []byte("ttl-value"), 100*time.Millisecond)
	_, found := c.Get(ctx, "ttl-key")
	require.True(t, found)

	mr.FastForward(200 * time.Millisecond)

	_, found = c.Get(ctx, "ttl-key")
	assert.False(t, found, "expected value to be expired")
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "delete-key", []byte("v"), 5*time.Minute)
	c.Delete(ctx, "delete-key")

	_, found := c.Get(ctx, "delete-key")
	assert.False(t, found)
}

func TestRedisCache_BackendDownActsAsMiss(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	_, found := c.Get(ctx, "k")
	assert.False(t, found)
	assert.Error(t, c.HealthCheck(ctx))
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr(), KeyPrefix: "rp:"}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.HealthCheck(context.Background()))

	_, err = NewRedisCache(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, err)
}
