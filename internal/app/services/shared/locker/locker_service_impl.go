package locker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	lockerServiceInstance contracts.LockerService
	onceLockerService     sync.Once
)

type lockService struct {
	RedisRepo contracts.RedisRepository
	Log       *zap.Logger
}

func NewLockService(redisRepo contracts.RedisRepository, logger *zap.Logger) contracts.LockerService {
	onceLockerService.Do(func() {
		instance := &lockService{
			RedisRepo: redisRepo,
			Log:       logger,
		}
		lockerServiceInstance = instance
	})
	return lockerServiceInstance
}

func (s *lockService) TryLock(ctx context.Context, redisKey string, expiration time.Duration) (bool, string, error) {
	s.Log.Info("lockService.TryLock called",
		zap.String(constvars.LoggingRedisKey, redisKey),
		zap.Duration(constvars.LoggingLockExpirationTimeKey, expiration),
	)

	lockValue := uuid.NewString()

	acquired, err := s.RedisRepo.TrySetNX(ctx, redisKey, lockValue, expiration)
	if err != nil {
		return false, "", err
	}
	if !acquired {
		s.Log.Info("lockService.TryLock lock already held",
			zap.String(constvars.LoggingRedisKey, redisKey),
		)
		return false, "", nil
	}

	s.Log.Info("lockService.TryLock lock acquired",
		zap.String(constvars.LoggingRedisKey, redisKey),
		zap.String(constvars.LoggingLockValueKey, lockValue),
	)
	return true, lockValue, nil
}

func (s *lockService) Unlock(ctx context.Context, redisKey string, lockValue string) error {
	s.Log.Info("lockService.Unlock called",
		zap.String(constvars.LoggingRedisKey, redisKey),
		zap.String(constvars.LoggingLockValueKey, lockValue),
	)

	storedValue, err := s.RedisRepo.Get(ctx, redisKey)
	if err != nil {
		return err
	}
	if storedValue == "" {
		s.Log.Warn("lockService.Unlock lock already released",
			zap.String(constvars.LoggingRedisKey, redisKey),
		)
		return nil
	}

	// RedisRepository.Set marshals values to JSON, so the stored string
	// carries quotes around it.
	expectedValue := fmt.Sprintf("%q", lockValue)
	if storedValue != expectedValue {
		s.Log.Warn("lockService.Unlock lock held by another owner",
			zap.String(constvars.LoggingRedisKey, redisKey),
			zap.String(constvars.LoggingLockStoredValueKey, storedValue),
			zap.String(constvars.LoggingLockExpectedValueKey, expectedValue),
		)
		return exceptions.ErrRedisUnlock(fmt.Errorf("lock %s is not owned by this holder", redisKey))
	}

	if err := s.RedisRepo.Delete(ctx, redisKey); err != nil {
		return err
	}

	s.Log.Info("lockService.Unlock lock released",
		zap.String(constvars.LoggingRedisKey, redisKey),
		zap.String(constvars.LoggingLockValueKey, lockValue),
	)
	return nil
}
