// Package ratelimiter provides a fixed-window counter on top of redis.
// It backs the per-partner quota; IP level limits are handled by the
// httprate middleware instead.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/pkg/constvars"

	"go.uber.org/zap"
)

type LimitResult struct {
	Allowed        bool
	Current        int
	Limit          int
	RetryAfterSecs int
}

type ResourceLimiter struct {
	RedisRepo contracts.RedisRepository
	Log       *zap.Logger
	Group     string
	Limit     int
	Window    time.Duration
}

func NewResourceLimiter(redisRepo contracts.RedisRepository, logger *zap.Logger, group string, limit int, window time.Duration) *ResourceLimiter {
	return &ResourceLimiter{
		RedisRepo: redisRepo,
		Log:       logger,
		Group:     group,
		Limit:     limit,
		Window:    window,
	}
}

// Allow counts one hit for the resource inside the current fixed window.
// Counters live under GROUP:resource:windowID and expire with the window,
// so an idle resource costs nothing.
func (l *ResourceLimiter) Allow(ctx context.Context, resource string) (LimitResult, error) {
	now := time.Now()
	windowSecs := int64(l.Window.Seconds())
	windowID := now.Unix() / windowSecs

	key := fmt.Sprintf("%s:%s:%d", l.Group, resource, windowID)

	count, err := l.RedisRepo.IncrementWithTTL(ctx, key, l.Window)
	if err != nil {
		return LimitResult{}, err
	}

	result := LimitResult{
		Allowed: count <= l.Limit,
		Current: count,
		Limit:   l.Limit,
	}
	if !result.Allowed {
		windowEnd := (windowID + 1) * windowSecs
		result.RetryAfterSecs = int(windowEnd - now.Unix())
		if result.RetryAfterSecs < 1 {
			result.RetryAfterSecs = 1
		}
		l.Log.Warn("ResourceLimiter.Allow limit exceeded",
			zap.String(constvars.LoggingRedisKey, key),
			zap.Int("current", count),
			zap.Int("limit", l.Limit),
		)
	}

	return result, nil
}
