package repository

import (
	"context"
	"testing"
	"time"

	"barberbridge/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	ctx := context.Background()
	require.NoError(t, Ping(ctx, client))

	limiter := NewRedisRateLimiter(client)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.CheckRateLimit(ctx, "5511", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.CheckRateLimit(ctx, "5511", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// другой номер считается отдельно
	allowed, err = limiter.CheckRateLimit(ctx, "5522", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.True(t, s.TTL(rateLimitPrefix+"5511") > 0)

	s.FastForward(2 * time.Minute)
	allowed, err = limiter.CheckRateLimit(ctx, "5511", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiterUnavailable(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()
	s.Close()

	_, err = NewRedisRateLimiter(client).CheckRateLimit(context.Background(), "1", 1, time.Second)
	assert.Error(t, err)
	assert.Error(t, Ping(context.Background(), client))

	_, err = NewRedisRateLimiter(nil).CheckRateLimit(context.Background(), "1", 1, time.Second)
	assert.Error(t, err)
}
