package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/config"
	"etickets/internal/logger"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLoginLimiter(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLoginLimiter(client, 3, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "Admin@Etickets.jo")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := l.Allow(ctx, "admin@etickets.jo")
	require.NoError(t, err)
	assert.False(t, ok, "keys are case-insensitive and the fourth attempt is over budget")
	assert.True(t, mr.TTL("login_attempts:admin@etickets.jo") > 0)

	ok, err = l.Allow(ctx, "someone@else.jo")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(16 * time.Minute)
	ok, err = l.Allow(ctx, "admin@etickets.jo")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")

	require.NoError(t, l.Reset(ctx, "admin@etickets.jo"))
	assert.False(t, mr.Exists("login_attempts:admin@etickets.jo"))
}

func TestConnectRedis(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)

	client, err := ConnectRedis(config.RedisConfig{}, log)
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = ConnectRedis(config.RedisConfig{Addr: mr.Addr()}, log)
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = ConnectRedis(config.RedisConfig{Addr: addr}, log)
	assert.Error(t, err)
}
