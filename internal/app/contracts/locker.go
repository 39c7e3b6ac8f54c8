package contracts

import (
	"context"
	"time"
)

// LockerService is the advisory distributed lock shared by background
// jobs. Losing a lock mid-run is tolerated; holders must stay correct
// without it.
type LockerService interface {
	TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, lockValue string) error
}
