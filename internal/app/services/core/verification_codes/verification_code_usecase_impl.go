package verificationCodes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/metrics"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var verificationCodePattern = regexp.MustCompile(constvars.RegexVerificationCode)

type verificationCodeUsecase struct {
	VerificationCodeRepository contracts.VerificationCodeRepository
	ScreeningSessionRepository contracts.ScreeningSessionRepository
	AuditUsecase               contracts.AuditUsecase
	DomainEventQueue           contracts.EventQueueService
	InternalConfig             *config.InternalConfig
	Log                        *zap.Logger
}

var (
	verificationCodeUsecaseInstance contracts.VerificationCodeUsecase
	onceVerificationCodeUsecase     sync.Once
)

func NewVerificationCodeUsecase(
	verificationCodeMongoRepository contracts.VerificationCodeRepository,
	screeningSessionMongoRepository contracts.ScreeningSessionRepository,
	auditUsecase contracts.AuditUsecase,
	domainEventQueue contracts.EventQueueService,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.VerificationCodeUsecase {
	onceVerificationCodeUsecase.Do(func() {
		verificationCodeUsecaseInstance = &verificationCodeUsecase{
			VerificationCodeRepository: verificationCodeMongoRepository,
			ScreeningSessionRepository: screeningSessionMongoRepository,
			AuditUsecase:               auditUsecase,
			DomainEventQueue:           domainEventQueue,
			InternalConfig:             internalConfig,
			Log:                        logger,
		}
	})
	return verificationCodeUsecaseInstance
}

// IssueCode mints the single verification code an eligible screening is
// entitled to. Uniqueness is delegated to the store's unique indexes: a
// collision on the code value retries with a fresh draw, a collision on
// the session means another request already issued its code.
func (uc *verificationCodeUsecase) IssueCode(ctx context.Context, tc tenant.Context, sessionID string, request *requests.IssueCode) (*responses.VerificationCode, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("verificationCodeUsecase.IssueCode called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
	)

	utils.SanitizeIssueCodeRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("verificationCodeUsecase.IssueCode validation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	session, err := uc.ScreeningSessionRepository.FindByID(ctx, tc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, exceptions.ErrScreeningNotFound(fmt.Errorf("session %s not found for tenant", sessionID))
	}
	if session.Status != models.ScreeningCompleted {
		return nil, exceptions.ErrScreeningNotCompleted(fmt.Errorf("session %s is still %s", sessionID, session.Status))
	}
	if !session.IsEligibleForCode() {
		return nil, exceptions.ErrScreeningNotEligible(fmt.Errorf("session %s outcome is %s", sessionID, session.Outcome))
	}

	existing, err := uc.VerificationCodeRepository.FindBySessionID(ctx, tc, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, exceptions.ErrCodeAlreadyIssued(fmt.Errorf("session %s already holds code %s", sessionID, utils.MaskVerificationCode(existing.Code)))
	}

	expiryHours := uc.InternalConfig.VerificationCode.DefaultExpiryTimeInHours
	if request.ExpiresInHours != nil {
		// Zero is honored: it issues an already-expired code, which some
		// programs use to void entitlement while keeping the audit trail.
		expiryHours = *request.ExpiresInHours
	}
	expiresAt := time.Now().UTC().Add(time.Duration(expiryHours) * time.Hour)

	code, err := uc.createWithFreshCode(ctx, tc, requestID, session, request.CodeType, expiresAt)
	if err != nil {
		return nil, err
	}

	metrics.CodesIssued.WithLabelValues(code.Type).Inc()

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionCodeIssued, constvars.AuditResourceVerificationCode, code.ID, map[string]string{
		"session_id": sessionID,
		"code":       utils.MaskVerificationCode(code.Code),
		"code_type":  code.Type,
	}); err != nil {
		uc.Log.Warn("verificationCodeUsecase.IssueCode audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.publishCodeEvent(ctx, tc, requestID, constvars.EventTypeCodeIssued, codeEventPayload{
		CodeID:    code.ID,
		SessionID: code.SessionID,
		ProgramID: code.ProgramID,
		Code:      utils.MaskVerificationCode(code.Code),
		CodeType:  code.Type,
		ExpiresAt: &code.ExpiresAt,
	})

	uc.Log.Info("verificationCodeUsecase.IssueCode succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
		zap.String(constvars.LoggingCodeIDKey, code.ID),
		zap.String("code", utils.MaskVerificationCode(code.Code)),
	)
	response := code.ConvertIntoResponse()
	return &response, nil
}

// createWithFreshCode retries value collisions up to the attempt budget.
// With a 32-character alphabet over 12 positions a collision is already
// freak-rare; exhausting the budget points at a broken random source or
// index and is surfaced as a server fault.
func (uc *verificationCodeUsecase) createWithFreshCode(ctx context.Context, tc tenant.Context, requestID string, session *models.ScreeningSession, codeType string, expiresAt time.Time) (*models.VerificationCode, error) {
	var lastErr error
	for attempt := 1; attempt <= constvars.VerificationCodeMaxGenerationAttempts; attempt++ {
		value, err := utils.GenerateVerificationCode()
		if err != nil {
			return nil, exceptions.ErrServerProcess(err)
		}

		code := &models.VerificationCode{
			ID:        uuid.NewString(),
			ProgramID: session.ProgramID,
			SessionID: session.ID,
			Code:      value,
			Type:      codeType,
			Status:    models.CodeUnused,
			ExpiresAt: expiresAt,
		}
		code.SetCreatedAtUpdatedAt()

		_, err = uc.VerificationCodeRepository.CreateVerificationCode(ctx, tc, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, ErrSessionCodeExists) {
			// Lost an issue race for the same session; the winner's code
			// stands.
			return nil, exceptions.ErrCodeAlreadyIssued(err)
		}
		if !errors.Is(err, ErrCodeValueTaken) {
			if errors.Is(err, ErrDuplicateUnknown) {
				return nil, exceptions.ErrMongoDBInsertDocument(err)
			}
			return nil, err
		}

		lastErr = err
		uc.Log.Warn("verificationCodeUsecase.createWithFreshCode value collision, retrying",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int("attempt", attempt),
		)
	}
	return nil, exceptions.ErrCodeGenerationExhausted(lastErr)
}

// RedeemCode consumes a code on behalf of a partner. The store performs
// match and consume as one conditional update, so exactly one caller wins
// a contended code; everyone else gets an advisory classification read
// after the fact.
func (uc *verificationCodeUsecase) RedeemCode(ctx context.Context, tc tenant.Context, partnerID string, request *requests.RedeemCode) (*responses.CodeRedemption, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("verificationCodeUsecase.RedeemCode called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
	)

	utils.SanitizeRedeemCodeRequest(request)
	request.Code = utils.NormalizeVerificationCode(request.Code)

	if !verificationCodePattern.MatchString(request.Code) {
		// A malformed code is by definition not a stored code; partners
		// get the classified shape, not a validation error.
		uc.Log.Info("verificationCodeUsecase.RedeemCode rejected malformed code",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("code", utils.MaskVerificationCode(request.Code)),
		)
		metrics.CodeRedemptions.WithLabelValues(metrics.RedemptionResultNotFound).Inc()
		return &responses.CodeRedemption{Valid: false, Error: responses.CodeRedemptionErrorNotFound}, nil
	}
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("verificationCodeUsecase.RedeemCode validation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	now := time.Now().UTC()
	redeemed, err := uc.VerificationCodeRepository.RedeemOne(ctx, tc, request.Code, now, partnerID, request.TransactionID)
	if err != nil {
		return nil, err
	}
	if redeemed == nil {
		return uc.classifyFailedRedemption(ctx, tc, requestID, request.Code, now)
	}

	metrics.CodeRedemptions.WithLabelValues(metrics.RedemptionResultSuccess).Inc()

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionCodeRedeemed, constvars.AuditResourceVerificationCode, redeemed.ID, map[string]string{
		"session_id":     redeemed.SessionID,
		"code":           utils.MaskVerificationCode(redeemed.Code),
		"transaction_id": request.TransactionID,
		"redeemed_by":    partnerID,
	}); err != nil {
		uc.Log.Warn("verificationCodeUsecase.RedeemCode audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.publishCodeEvent(ctx, tc, requestID, constvars.EventTypeCodeRedeemed, codeEventPayload{
		CodeID:        redeemed.ID,
		SessionID:     redeemed.SessionID,
		ProgramID:     redeemed.ProgramID,
		Code:          utils.MaskVerificationCode(redeemed.Code),
		CodeType:      redeemed.Type,
		RedeemedBy:    partnerID,
		TransactionID: request.TransactionID,
		RedeemedAt:    redeemed.UsedAt,
	})

	uc.Log.Info("verificationCodeUsecase.RedeemCode succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingCodeIDKey, redeemed.ID),
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
	)
	return &responses.CodeRedemption{
		Valid:   true,
		Code:    redeemed.ConvertIntoRedeemedCode(),
		Session: uc.lookupRedeemedSession(ctx, tc, requestID, redeemed.SessionID),
	}, nil
}

// classifyFailedRedemption explains a redemption the store rejected. The
// read is advisory: it names the state observed after the attempt, which
// is exact enough for a partner-facing reason.
func (uc *verificationCodeUsecase) classifyFailedRedemption(ctx context.Context, tc tenant.Context, requestID, code string, now time.Time) (*responses.CodeRedemption, error) {
	current, err := uc.VerificationCodeRepository.FindByCode(ctx, tc, code)
	if err != nil {
		return nil, err
	}

	var reason string
	switch {
	case current == nil:
		reason = responses.CodeRedemptionErrorNotFound
	case current.Status == models.CodeUsed:
		reason = responses.CodeRedemptionErrorAlreadyUsed
	case current.Status == models.CodeExpired:
		reason = responses.CodeRedemptionErrorExpired
	case !current.ExpiresAt.After(now):
		// Expiry passed but the sweeper has not relabeled yet; the
		// timestamp decides, not the label.
		reason = responses.CodeRedemptionErrorExpired
	default:
		// Unused and live, yet the conditional update matched nothing.
		return nil, exceptions.ErrCodeRedeemUnclassified(fmt.Errorf("code %s reads redeemable after a rejected redeem", utils.MaskVerificationCode(code)))
	}

	metrics.CodeRedemptions.WithLabelValues(reason).Inc()
	uc.Log.Info("verificationCodeUsecase.RedeemCode rejected",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("code", utils.MaskVerificationCode(code)),
		zap.String("reason", reason),
	)
	return &responses.CodeRedemption{Valid: false, Error: reason}, nil
}

// CheckCode reports whether a code would redeem right now, without
// consuming it. Pharmacists use it to pre-validate before ringing up.
func (uc *verificationCodeUsecase) CheckCode(ctx context.Context, tc tenant.Context, code string) (*responses.CodeRedemption, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("verificationCodeUsecase.CheckCode called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
	)

	normalized := utils.NormalizeVerificationCode(code)
	if !verificationCodePattern.MatchString(normalized) {
		return &responses.CodeRedemption{Valid: false, Error: responses.CodeRedemptionErrorNotFound}, nil
	}

	current, err := uc.VerificationCodeRepository.FindByCode(ctx, tc, normalized)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch {
	case current == nil:
		return &responses.CodeRedemption{Valid: false, Error: responses.CodeRedemptionErrorNotFound}, nil
	case current.Status == models.CodeUsed:
		return &responses.CodeRedemption{Valid: false, Error: responses.CodeRedemptionErrorAlreadyUsed}, nil
	case current.Status == models.CodeExpired || !current.ExpiresAt.After(now):
		return &responses.CodeRedemption{Valid: false, Error: responses.CodeRedemptionErrorExpired}, nil
	}

	return &responses.CodeRedemption{
		Valid:   true,
		Code:    current.ConvertIntoRedeemedCode(),
		Session: uc.lookupRedeemedSession(ctx, tc, requestID, current.SessionID),
	}, nil
}

// MarkExpiredCodes relabels this tenant's lapsed codes. Called by the
// sweeper per tenant; redemption correctness never depends on it because
// RedeemOne checks the timestamp itself.
func (uc *verificationCodeUsecase) MarkExpiredCodes(ctx context.Context, tc tenant.Context) (int64, error) {
	swept, err := uc.VerificationCodeRepository.MarkExpired(ctx, tc, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if swept == 0 {
		return 0, nil
	}

	metrics.CodesSwept.Add(float64(swept))

	if err := uc.AuditUsecase.Record(ctx, tc, constvars.AuditActorSystemSweeper, constvars.AuditActionCodesExpired, constvars.AuditResourceVerificationCode, "", map[string]int64{
		"swept_count": swept,
	}); err != nil {
		uc.Log.Warn("verificationCodeUsecase.MarkExpiredCodes audit record failed",
			zap.String(constvars.LoggingTenantIDKey, tc.ID()),
			zap.Error(err),
		)
	}

	uc.Log.Info("verificationCodeUsecase.MarkExpiredCodes relabeled lapsed codes",
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.Int64("swept_count", swept),
	)
	return swept, nil
}

// lookupRedeemedSession attaches the screening outcome to a redemption
// response. The code already changed hands, so a fetch fault degrades the
// response instead of failing it.
func (uc *verificationCodeUsecase) lookupRedeemedSession(ctx context.Context, tc tenant.Context, requestID, sessionID string) *responses.RedeemedSession {
	session, err := uc.ScreeningSessionRepository.FindByID(ctx, tc, sessionID)
	if err != nil || session == nil {
		uc.Log.Warn("verificationCodeUsecase.lookupRedeemedSession could not load session",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, sessionID),
			zap.Error(err),
		)
		return nil
	}
	return &responses.RedeemedSession{
		Outcome:     string(session.Outcome),
		CompletedAt: session.CompletedAt,
	}
}

type codeEventPayload struct {
	CodeID        string     `json:"code_id"`
	SessionID     string     `json:"session_id"`
	ProgramID     string     `json:"program_id"`
	Code          string     `json:"code"`
	CodeType      string     `json:"code_type"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RedeemedBy    string     `json:"redeemed_by,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}

func (uc *verificationCodeUsecase) publishCodeEvent(ctx context.Context, tc tenant.Context, requestID, eventType string, payload codeEventPayload) {
	raw, err := json.Marshal(payload)
	if err == nil {
		err = uc.DomainEventQueue.Publish(ctx, models.DomainEvent{
			ID:         uuid.NewString(),
			Type:       eventType,
			TenantID:   tc.ID(),
			OccurredAt: time.Now().UTC(),
			Payload:    raw,
		})
	}
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(eventType).Inc()
		uc.Log.Warn("verificationCodeUsecase.publishCodeEvent publish failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
