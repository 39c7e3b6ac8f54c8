package middlewares

import (
	"aegis-service/internal/app/config"
	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/services/shared/ratelimiter"

	"go.uber.org/zap"
)

type Middlewares struct {
	Log            *zap.Logger
	InternalConfig *config.InternalConfig
	PartnerUsecase contracts.PartnerUsecase
	SessionToken   contracts.SessionTokenService
	PartnerQuota   *ratelimiter.ResourceLimiter
}

func NewMiddlewares(
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
	partnerUsecase contracts.PartnerUsecase,
	sessionToken contracts.SessionTokenService,
	partnerQuota *ratelimiter.ResourceLimiter,
) *Middlewares {
	return &Middlewares{
		Log:            logger,
		InternalConfig: internalConfig,
		PartnerUsecase: partnerUsecase,
		SessionToken:   sessionToken,
		PartnerQuota:   partnerQuota,
	}
}
