package partners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// partnerCacheTTL bounds how stale an authenticated partner record can
// be. Status flips (disable a leaked key) take effect within this window
// even if the explicit invalidation is missed.
const partnerCacheTTL = 5 * time.Minute

type partnerUsecase struct {
	PartnerRepository contracts.PartnerRepository
	RedisRepository   contracts.RedisRepository
	AuditUsecase      contracts.AuditUsecase
	Log               *zap.Logger
}

var (
	partnerUsecaseInstance contracts.PartnerUsecase
	oncePartnerUsecase     sync.Once
)

func NewPartnerUsecase(
	partnerMongoRepository contracts.PartnerRepository,
	redisRepository contracts.RedisRepository,
	auditUsecase contracts.AuditUsecase,
	logger *zap.Logger,
) contracts.PartnerUsecase {
	oncePartnerUsecase.Do(func() {
		partnerUsecaseInstance = &partnerUsecase{
			PartnerRepository: partnerMongoRepository,
			RedisRepository:   redisRepository,
			AuditUsecase:      auditUsecase,
			Log:               logger,
		}
	})
	return partnerUsecaseInstance
}

func (uc *partnerUsecase) CreatePartner(ctx context.Context, tc tenant.Context, request *requests.CreatePartner) (*responses.CreatedPartner, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("partnerUsecase.CreatePartner called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
	)

	utils.SanitizeCreatePartnerRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("partnerUsecase.CreatePartner validation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	keyID, secret, err := utils.GenerateAPIKeyCredential()
	if err != nil {
		return nil, exceptions.ErrServerProcess(err)
	}
	hash, err := utils.HashAPIKey(secret)
	if err != nil {
		return nil, exceptions.ErrHashSecret(err)
	}

	partner := &models.Partner{
		ID:         uuid.NewString(),
		Name:       request.Name,
		APIKeyID:   keyID,
		APIKeyHash: hash,
		Role:       request.Role,
		Status:     models.PartnerEnabled,
	}
	partner.SetCreatedAtUpdatedAt()

	partnerID, err := uc.PartnerRepository.CreatePartner(ctx, tc, partner)
	if err != nil {
		uc.Log.Error("partnerUsecase.CreatePartner error creating partner",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionPartnerCreated, constvars.AuditResourcePartner, partnerID, map[string]string{
		"name":       partner.Name,
		"role":       partner.Role,
		"api_key_id": partner.APIKeyID,
	}); err != nil {
		uc.Log.Warn("partnerUsecase.CreatePartner audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.Log.Info("partnerUsecase.CreatePartner succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
		zap.String("api_key_id", keyID),
	)
	return &responses.CreatedPartner{
		Partner: partner.ConvertIntoResponse(),
		APIKey:  fmt.Sprintf("%s.%s", keyID, secret),
	}, nil
}

func (uc *partnerUsecase) GetPartners(ctx context.Context, tc tenant.Context, page, pageSize int) ([]responses.Partner, int, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("partnerUsecase.GetPartners called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
	)

	partners, total, err := uc.PartnerRepository.FindAll(ctx, tc, page, pageSize)
	if err != nil {
		uc.Log.Error("partnerUsecase.GetPartners error fetching partners",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, 0, err
	}

	response := make([]responses.Partner, len(partners))
	for i := range partners {
		response[i] = partners[i].ConvertIntoResponse()
	}
	return response, total, nil
}

// AuthenticateAPIKey verifies a presented "<keyID>.<secret>" credential.
// Every failure mode reads the same to the caller: unauthorized, with no
// hint whether the key id exists.
func (uc *partnerUsecase) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.Partner, error) {
	keyID, secret, found := strings.Cut(apiKey, ".")
	if !found || keyID == "" || secret == "" {
		return nil, exceptions.ErrInvalidAPIKey(errors.New(constvars.ErrDevPartnerKeyMismatch))
	}

	partner, err := uc.lookupPartnerByKeyID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, exceptions.ErrInvalidAPIKey(fmt.Errorf("no partner for key id %s", keyID))
	}

	if !utils.CheckAPIKeyHash(secret, partner.APIKeyHash) {
		utils.LogSecurityEvent(uc.Log, "api_key_hash_mismatch", utils.GetRequestID(ctx), utils.SecuritySeverityMedium,
			zap.String("api_key_id", keyID),
			zap.String(constvars.LoggingPartnerIDKey, partner.ID),
		)
		return nil, exceptions.ErrPartnerKeyMismatch(fmt.Errorf("secret mismatch for key id %s", keyID))
	}

	if partner.Status != models.PartnerEnabled {
		return nil, exceptions.ErrPartnerDisabled(fmt.Errorf("partner %s is %s", partner.ID, partner.Status))
	}

	return partner, nil
}

// cachedPartner is the auth cache entry. The model strips APIKeyHash from
// JSON, so the hash rides alongside it or a cache hit could never verify
// a secret.
type cachedPartner struct {
	Partner    models.Partner `json:"partner"`
	APIKeyHash string         `json:"api_key_hash"`
}

// lookupPartnerByKeyID serves authentication from the redis cache when it
// can. Cache faults fall back to the store; redemption must not depend on
// redis being up.
func (uc *partnerUsecase) lookupPartnerByKeyID(ctx context.Context, keyID string) (*models.Partner, error) {
	cacheKey := fmt.Sprintf(constvars.RedisKeyPartnerFormat, keyID)

	cached, err := uc.RedisRepository.Get(ctx, cacheKey)
	if err != nil {
		uc.Log.Warn("partnerUsecase.lookupPartnerByKeyID cache read failed",
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}
	if cached != "" {
		var entry cachedPartner
		if err := json.Unmarshal([]byte(cached), &entry); err == nil && entry.Partner.ID != "" {
			partner := entry.Partner
			partner.APIKeyHash = entry.APIKeyHash
			return &partner, nil
		}
	}

	partner, err := uc.PartnerRepository.FindByAPIKeyID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, nil
	}

	if err := uc.RedisRepository.Set(ctx, cacheKey, cachedPartner{Partner: *partner, APIKeyHash: partner.APIKeyHash}, partnerCacheTTL); err != nil {
		uc.Log.Warn("partnerUsecase.lookupPartnerByKeyID cache write failed",
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}
	return partner, nil
}

func (uc *partnerUsecase) UpdatePartnerStatus(ctx context.Context, tc tenant.Context, partnerID string, status models.PartnerStatus) (*responses.Partner, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("partnerUsecase.UpdatePartnerStatus called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
		zap.String("status", string(status)),
	)

	partner, err := uc.PartnerRepository.FindByID(ctx, tc, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, exceptions.ErrPartnerNotFound(fmt.Errorf("partner %s not found for tenant", partnerID))
	}

	if err := uc.PartnerRepository.UpdateStatus(ctx, tc, partnerID, status); err != nil {
		uc.Log.Error("partnerUsecase.UpdatePartnerStatus error updating status",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	// Drop the auth cache entry so a disable lands immediately, not at
	// TTL expiry.
	cacheKey := fmt.Sprintf(constvars.RedisKeyPartnerFormat, partner.APIKeyID)
	if err := uc.RedisRepository.Delete(ctx, cacheKey); err != nil {
		uc.Log.Warn("partnerUsecase.UpdatePartnerStatus cache invalidation failed",
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionPartnerStatusChanged, constvars.AuditResourcePartner, partnerID, map[string]string{
		"previous_status": string(partner.Status),
		"new_status":      string(status),
	}); err != nil {
		uc.Log.Warn("partnerUsecase.UpdatePartnerStatus audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	partner.Status = status
	partner.SetUpdatedAt()

	uc.Log.Info("partnerUsecase.UpdatePartnerStatus succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
		zap.String("status", string(status)),
	)
	response := partner.ConvertIntoResponse()
	return &response, nil
}
