package verificationCodes

import (
	"context"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/contracts"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/tenant"

	"go.uber.org/zap"
)

// ExpirySweeper periodically relabels lapsed codes so listings and checks
// read "expired" without consulting the clock. It is bookkeeping only:
// redemption rejects lapsed codes on the timestamp whether or not the
// sweeper has run. A redis lock keeps one instance sweeping per tick.
type ExpirySweeper struct {
	log     *zap.Logger
	cfg     *config.InternalConfig
	locker  contracts.LockerService
	usecase contracts.VerificationCodeUsecase
	repo    contracts.VerificationCodeRepository
	stop    chan struct{}
}

func NewExpirySweeper(log *zap.Logger, cfg *config.InternalConfig, lockerSvc contracts.LockerService, usecase contracts.VerificationCodeUsecase, repo contracts.VerificationCodeRepository) *ExpirySweeper {
	return &ExpirySweeper{
		log:     log,
		cfg:     cfg,
		locker:  lockerSvc,
		usecase: usecase,
		repo:    repo,
		stop:    make(chan struct{}),
	}
}

// Start begins the ticker loop. It returns a stop function to halt execution.
func (s *ExpirySweeper) Start(ctx context.Context) (stop func()) {
	interval := time.Duration(s.cfg.Sweeper.IntervalInMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	stopped := make(chan struct{})

	s.log.Info("expiry sweeper started",
		zap.Duration("interval", interval))

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-s.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		close(s.stop)
	}
}

func (s *ExpirySweeper) runOnce(ctx context.Context) {
	ttl := time.Duration(s.cfg.Sweeper.LockTTLInSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	acquired, lockVal, err := s.locker.TryLock(ctx, constvars.RedisKeySweeperLock, ttl)
	if err != nil {
		s.log.Info("expiry sweeper lock attempt failed", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.locker.Unlock(ctx, constvars.RedisKeySweeperLock, lockVal); err != nil {
			s.log.Error("expiry sweeper unlock failed", zap.Error(err))
		}
	}()

	tenantIDs, err := s.repo.ListTenantIDs(ctx)
	if err != nil {
		s.log.Error("expiry sweeper could not list tenants", zap.Error(err))
		return
	}

	var total int64
	for _, id := range tenantIDs {
		tc, err := tenant.Bind(id)
		if err != nil {
			// A stored tenant id that no longer binds is data damage;
			// skip it loudly rather than abort the whole sweep.
			s.log.Error("expiry sweeper skipping unbindable tenant",
				zap.String(constvars.LoggingTenantIDKey, id),
				zap.Error(err),
			)
			continue
		}
		swept, err := s.usecase.MarkExpiredCodes(ctx, tc)
		if err != nil {
			s.log.Error("expiry sweeper pass failed for tenant",
				zap.String(constvars.LoggingTenantIDKey, id),
				zap.Error(err),
			)
			continue
		}
		total += swept
	}

	if total > 0 {
		s.log.Info("expiry sweeper finished",
			zap.Int("tenant_count", len(tenantIDs)),
			zap.Int64("swept_count", total),
		)
	}
}
