package locker

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

func newTestLocker(t *testing.T) (*miniredis.Miniredis, *lockService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, &lockService{
		RedisRepo: aegisredis.NewRedisRepository(client),
		Log:       zap.NewNop(),
	}
}

func TestLockServiceTryLock(t *testing.T) {
	t.Run("ShouldAcquireFreeLock", func(t *testing.T) {
		_, svc := newTestLocker(t)

		acquired, lockValue, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)
		assert.True(t, acquired)
		assert.NotEmpty(t, lockValue)
	})

	t.Run("ShouldNotAcquireHeldLock", func(t *testing.T) {
		_, svc := newTestLocker(t)

		_, _, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)

		acquired, lockValue, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)
		assert.False(t, acquired)
		assert.Empty(t, lockValue)
	})

	t.Run("ShouldAcquireAgainAfterExpiry", func(t *testing.T) {
		mr, svc := newTestLocker(t)

		_, _, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		acquired, _, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)
		assert.True(t, acquired)
	})
}

func TestLockServiceUnlock(t *testing.T) {
	t.Run("ShouldReleaseOwnLock", func(t *testing.T) {
		mr, svc := newTestLocker(t)

		_, lockValue, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)

		err = svc.Unlock(context.Background(), "aegis:lock:sweeper", lockValue)
		assert.NoError(t, err)
		assert.False(t, mr.Exists("aegis:lock:sweeper"))
	})

	t.Run("ShouldRefuseToReleaseForeignLock", func(t *testing.T) {
		mr, svc := newTestLocker(t)

		_, _, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)

		err = svc.Unlock(context.Background(), "aegis:lock:sweeper", "not-the-owner")
		assert.Error(t, err)
		assert.True(t, mr.Exists("aegis:lock:sweeper"), "a foreign unlock must leave the lock in place")
	})

	t.Run("ShouldTolerateExpiredLock", func(t *testing.T) {
		mr, svc := newTestLocker(t)

		_, lockValue, err := svc.TryLock(context.Background(), "aegis:lock:sweeper", time.Minute)
		assert.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		err = svc.Unlock(context.Background(), "aegis:lock:sweeper", lockValue)
		assert.NoError(t, err, "unlocking an already expired lock is a no-op")
	})
}
