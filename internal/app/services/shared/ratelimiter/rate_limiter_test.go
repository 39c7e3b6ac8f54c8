package ratelimiter

import (
	"context"
	"testing"
	"time"

	aegisredis "aegis-service/internal/app/services/shared/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*miniredis.Miniredis, *ResourceLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, NewResourceLimiter(aegisredis.NewRedisRepository(client), zap.NewNop(), "aegis:quota:partner", limit, window)
}

func TestResourceLimiterAllow(t *testing.T) {
	t.Run("ShouldAllowUpToLimit", func(t *testing.T) {
		_, limiter := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			result, err := limiter.Allow(context.Background(), "partner-a")
			assert.NoError(t, err)
			assert.True(t, result.Allowed)
		}

		result, err := limiter.Allow(context.Background(), "partner-a")
		assert.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 4, result.Current)
		assert.GreaterOrEqual(t, result.RetryAfterSecs, 1)
		assert.LessOrEqual(t, result.RetryAfterSecs, 60)
	})

	t.Run("ShouldCountResourcesIndependently", func(t *testing.T) {
		_, limiter := newTestLimiter(t, 1, time.Minute)

		first, err := limiter.Allow(context.Background(), "partner-a")
		assert.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(context.Background(), "partner-a")
		assert.NoError(t, err)
		assert.False(t, blocked.Allowed)

		other, err := limiter.Allow(context.Background(), "partner-b")
		assert.NoError(t, err)
		assert.True(t, other.Allowed, "one partner exhausting its quota must not affect another")
	})
}
