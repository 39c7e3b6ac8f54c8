package contracts

import (
	"context"
	"time"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/tenant"
)

type VerificationCodeUsecase interface {
	IssueCode(ctx context.Context, tc tenant.Context, sessionID string, request *requests.IssueCode) (*responses.VerificationCode, error)
	RedeemCode(ctx context.Context, tc tenant.Context, partnerID string, request *requests.RedeemCode) (*responses.CodeRedemption, error)
	CheckCode(ctx context.Context, tc tenant.Context, code string) (*responses.CodeRedemption, error)
	MarkExpiredCodes(ctx context.Context, tc tenant.Context) (int64, error)
}

type VerificationCodeRepository interface {
	CreateVerificationCode(ctx context.Context, tc tenant.Context, code *models.VerificationCode) (codeID string, err error)
	FindByCode(ctx context.Context, tc tenant.Context, code string) (*models.VerificationCode, error)
	FindBySessionID(ctx context.Context, tc tenant.Context, sessionID string) (*models.VerificationCode, error)
	// RedeemOne performs the entire redemption as one conditional update on
	// the store: filter on unused status and a live expiry, set used state
	// and redemption metadata in the same server-side operation. It returns
	// the redeemed document, or nil when nothing matched.
	RedeemOne(ctx context.Context, tc tenant.Context, code string, now time.Time, redeemedBy, transactionID string) (*models.VerificationCode, error)
	// MarkExpired relabels unused codes whose expiry has passed. The status
	// filter makes it safe to run concurrently with redemption.
	MarkExpired(ctx context.Context, tc tenant.Context, now time.Time) (int64, error)
	// ListTenantIDs enumerates tenants that own codes. It is the one
	// deliberately cross-tenant read in the system, used by the expiry
	// sweeper to fan out per-tenant MarkExpired passes.
	ListTenantIDs(ctx context.Context) ([]string, error)
}
