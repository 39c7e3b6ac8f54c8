package contracts

import (
	"context"
	"time"
)

type RedisRepository interface {
	Delete(ctx context.Context, key string) error
	Set(ctx context.Context, key string, value interface{}, exp time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
	// IncrementWithTTL bumps a counter and stamps the TTL when the key is
	// created; the fixed-window limiter is built on it.
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int, error)
}
