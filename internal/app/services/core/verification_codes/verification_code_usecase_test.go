package verificationCodes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/eligibility"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	codeTestTenantID  = "3f2c8a94-0d6e-4f24-9c57-1f0de7a20b11"
	codeTestSessionID = "b0e79c3a-54d1-4a8e-8f2b-6f4f9a1c2d3e"
	codeTestProgramID = "7a1d2e3f-4b5c-6d7e-8f90-a1b2c3d4e5f6"
	codeTestPartnerID = "c9d8e7f6-a5b4-4c3d-9e2f-1a2b3c4d5e6f"
	codeTestValue     = "AEGIS-7GQ2-XJ4M-P9RY"
)

type stubScreeningSessionRepository struct {
	mu      sync.Mutex
	session *models.ScreeningSession
	findErr error
}

func (s *stubScreeningSessionRepository) CreateScreeningSession(ctx context.Context, tc tenant.Context, session *models.ScreeningSession) (string, error) {
	return "", errors.New("not used in this test")
}

func (s *stubScreeningSessionRepository) FindByID(ctx context.Context, tc tenant.Context, sessionID string) (*models.ScreeningSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.findErr
}

func (s *stubScreeningSessionRepository) CompleteSession(ctx context.Context, tc tenant.Context, sessionID string, answers eligibility.Answers, outcome eligibility.Outcome, completedAt time.Time) (bool, error) {
	return false, errors.New("not used in this test")
}

// stubVerificationCodeRepository mimics the store's conditional semantics:
// RedeemOne hands the redeemable document to exactly one caller, createErrs
// feeds insert results in order.
type stubVerificationCodeRepository struct {
	mu sync.Mutex

	createErrs []error
	created    []*models.VerificationCode

	bySession *models.VerificationCode
	byCode    *models.VerificationCode
	findArg   string

	redeemable  *models.VerificationCode
	redeemCalls int

	sweptCount int64
	sweepErr   error
	markCalls  int

	tenantIDs []string
	listCalls int
	listErr   error
}

func (s *stubVerificationCodeRepository) CreateVerificationCode(ctx context.Context, tc tenant.Context, code *models.VerificationCode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, code)
	if len(s.createErrs) == 0 {
		return code.ID, nil
	}
	err := s.createErrs[0]
	s.createErrs = s.createErrs[1:]
	if err != nil {
		return "", err
	}
	return code.ID, nil
}

func (s *stubVerificationCodeRepository) FindByCode(ctx context.Context, tc tenant.Context, code string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findArg = code
	return s.byCode, nil
}

func (s *stubVerificationCodeRepository) FindBySessionID(ctx context.Context, tc tenant.Context, sessionID string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bySession, nil
}

func (s *stubVerificationCodeRepository) RedeemOne(ctx context.Context, tc tenant.Context, code string, now time.Time, redeemedBy, transactionID string) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redeemCalls++
	if s.redeemable == nil || s.redeemable.Code != code || s.redeemable.Status != models.CodeUnused || !s.redeemable.ExpiresAt.After(now) {
		return nil, nil
	}
	redeemed := *s.redeemable
	redeemed.Status = models.CodeUsed
	usedAt := now
	redeemed.UsedAt = &usedAt
	redeemed.RedeemedBy = redeemedBy
	redeemed.TransactionID = transactionID
	s.redeemable = nil
	// Losers classify against the state the winner left behind.
	s.byCode = &redeemed
	return &redeemed, nil
}

func (s *stubVerificationCodeRepository) MarkExpired(ctx context.Context, tc tenant.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	s.markCalls++
	s.mu.Unlock()
	return s.sweptCount, s.sweepErr
}

func (s *stubVerificationCodeRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.tenantIDs != nil {
		return s.tenantIDs, nil
	}
	return []string{codeTestTenantID}, nil
}

type recordedAuditEvent struct {
	actor      string
	action     string
	resource   string
	resourceID string
	detail     interface{}
}

type stubAuditRecorder struct {
	mu     sync.Mutex
	events []recordedAuditEvent
	err    error
}

func (s *stubAuditRecorder) Record(ctx context.Context, tc tenant.Context, actor, action, resource, resourceID string, detail interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedAuditEvent{actor: actor, action: action, resource: resource, resourceID: resourceID, detail: detail})
	return s.err
}

func (s *stubAuditRecorder) recorded() []recordedAuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedAuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

type stubEventQueue struct {
	mu         sync.Mutex
	published  []models.DomainEvent
	publishErr error
}

func (s *stubEventQueue) Publish(ctx context.Context, event models.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, event)
	return s.publishErr
}

func (s *stubEventQueue) Reenqueue(ctx context.Context, event models.DomainEvent) error {
	return nil
}

func (s *stubEventQueue) EnqueueToDeadQueue(ctx context.Context, event models.DomainEvent) error {
	return nil
}

func (s *stubEventQueue) FetchN(ctx context.Context, max int) ([]models.QueuedEvent, error) {
	return nil, nil
}

func (s *stubEventQueue) AckMessage(ctx context.Context, deliveryTag uint64) error {
	return nil
}

func (s *stubEventQueue) publishedEvents() []models.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DomainEvent, len(s.published))
	copy(out, s.published)
	return out
}

func codeTestTenant(t *testing.T) tenant.Context {
	t.Helper()
	tc, err := tenant.Bind(codeTestTenantID)
	assert.NoError(t, err)
	return tc
}

func completedEligibleSession() *models.ScreeningSession {
	completedAt := time.Now().UTC().Add(-time.Hour)
	return &models.ScreeningSession{
		ID:          codeTestSessionID,
		TenantID:    codeTestTenantID,
		ProgramID:   codeTestProgramID,
		VersionID:   "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b",
		Status:      models.ScreeningCompleted,
		Answers:     eligibility.Answers{"age": float64(45)},
		Outcome:     eligibility.OutcomeEligible,
		CompletedAt: &completedAt,
	}
}

func liveCode() *models.VerificationCode {
	return &models.VerificationCode{
		ID:        "d1e2f3a4-b5c6-4d7e-8f90-1a2b3c4d5e6f",
		TenantID:  codeTestTenantID,
		ProgramID: codeTestProgramID,
		SessionID: codeTestSessionID,
		Code:      codeTestValue,
		Type:      "copay_card",
		Status:    models.CodeUnused,
		ExpiresAt: time.Now().UTC().Add(48 * time.Hour),
	}
}

func newCodeUsecase(codeRepo *stubVerificationCodeRepository, screeningRepo *stubScreeningSessionRepository, audit *stubAuditRecorder, queue *stubEventQueue) *verificationCodeUsecase {
	return &verificationCodeUsecase{
		VerificationCodeRepository: codeRepo,
		ScreeningSessionRepository: screeningRepo,
		AuditUsecase:               audit,
		DomainEventQueue:           queue,
		InternalConfig: &config.InternalConfig{
			VerificationCode: config.AppVerificationCode{DefaultExpiryTimeInHours: 72},
		},
		Log: zap.NewNop(),
	}
}

func assertCustomErrorStatus(t *testing.T, err error, statusCode int) {
	t.Helper()
	var customErr *exceptions.CustomError
	assert.ErrorAs(t, err, &customErr)
	assert.Equal(t, statusCode, customErr.StatusCode)
}

func TestIssueCode(t *testing.T) {
	t.Run("ShouldIssueCodeWithConfiguredDefaultExpiry", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{}
		audit := &stubAuditRecorder{}
		queue := &stubEventQueue{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, audit, queue)

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.NoError(t, err)
		assert.NotNil(t, response)
		assert.Equal(t, "copay_card", response.Type)
		assert.Equal(t, string(models.CodeUnused), response.Status)
		assert.Regexp(t, constvars.RegexVerificationCode, response.Code)

		assert.Len(t, codeRepo.created, 1)
		created := codeRepo.created[0]
		assert.Equal(t, codeTestSessionID, created.SessionID)
		assert.Equal(t, codeTestProgramID, created.ProgramID)
		assert.WithinDuration(t, time.Now().UTC().Add(72*time.Hour), created.ExpiresAt, time.Minute)

		events := audit.recorded()
		assert.Len(t, events, 1)
		assert.Equal(t, constvars.AuditActionCodeIssued, events[0].action)
		assert.Equal(t, constvars.AuditResourceVerificationCode, events[0].resource)
		detail, ok := events[0].detail.(map[string]string)
		assert.True(t, ok)
		assert.Contains(t, detail["code"], "*", "audit trail must carry the masked code, not the raw value")

		published := queue.publishedEvents()
		assert.Len(t, published, 1)
		assert.Equal(t, constvars.EventTypeCodeIssued, published[0].Type)
		assert.Equal(t, codeTestTenantID, published[0].TenantID)
		assert.NotContains(t, string(published[0].Payload), created.Code, "events must not leak the raw code value")
	})

	t.Run("ShouldHonorExplicitZeroExpiry", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		zero := 0
		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "voucher", ExpiresInHours: &zero})

		assert.NoError(t, err)
		assert.NotNil(t, response)
		assert.Len(t, codeRepo.created, 1)
		assert.False(t, codeRepo.created[0].ExpiresAt.After(time.Now().UTC()), "zero hours must produce an already-expired code")
	})

	t.Run("ShouldRejectUnknownCodeType", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "gift_card"})

		assert.Error(t, err)
		assert.Nil(t, response)
		assert.Empty(t, codeRepo.created)
	})

	t.Run("ShouldRejectUnknownSession", func(t *testing.T) {
		uc := newCodeUsecase(&stubVerificationCodeRepository{}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusNotFound)
	})

	t.Run("ShouldRejectSessionStillInProgress", func(t *testing.T) {
		session := completedEligibleSession()
		session.Status = models.ScreeningStarted
		session.Outcome = ""
		uc := newCodeUsecase(&stubVerificationCodeRepository{}, &stubScreeningSessionRepository{session: session}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusConflict)
	})

	t.Run("ShouldRejectIneligibleOutcome", func(t *testing.T) {
		session := completedEligibleSession()
		session.Outcome = eligibility.OutcomeIneligible
		uc := newCodeUsecase(&stubVerificationCodeRepository{}, &stubScreeningSessionRepository{session: session}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusConflict)
	})

	t.Run("ShouldRejectSessionThatAlreadyHoldsACode", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{bySession: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusConflict)
		assert.Empty(t, codeRepo.created)
	})

	t.Run("ShouldTranslateSessionInsertRaceIntoAlreadyIssued", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{createErrs: []error{ErrSessionCodeExists}}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusConflict)
		assert.Len(t, codeRepo.created, 1, "a session collision must not be retried")
	})

	t.Run("ShouldRetryValueCollisionsWithFreshDraws", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{createErrs: []error{ErrCodeValueTaken, ErrCodeValueTaken, nil}}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.NoError(t, err)
		assert.NotNil(t, response)
		assert.Len(t, codeRepo.created, 3)
		assert.NotEqual(t, codeRepo.created[0].Code, codeRepo.created[1].Code, "each attempt must draw a fresh value")
	})

	t.Run("ShouldGiveUpAfterGenerationBudget", func(t *testing.T) {
		collisions := make([]error, constvars.VerificationCodeMaxGenerationAttempts)
		for i := range collisions {
			collisions[i] = ErrCodeValueTaken
		}
		codeRepo := &stubVerificationCodeRepository{createErrs: collisions}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.IssueCode(context.Background(), codeTestTenant(t), codeTestSessionID, &requests.IssueCode{CodeType: "copay_card"})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusInternalServerError)
		assert.Len(t, codeRepo.created, constvars.VerificationCodeMaxGenerationAttempts)
	})
}

func TestRedeemCode(t *testing.T) {
	t.Run("ShouldRedeemLiveCodeAndAttachSessionOutcome", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		audit := &stubAuditRecorder{}
		queue := &stubEventQueue{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, audit, queue)

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81723",
		})

		assert.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Empty(t, response.Error)
		assert.Equal(t, codeTestValue, response.Code.Code)
		assert.Equal(t, string(models.CodeUsed), response.Code.Status)
		assert.NotNil(t, response.Code.UsedAt)
		assert.NotNil(t, response.Session)
		assert.Equal(t, string(eligibility.OutcomeEligible), response.Session.Outcome)

		events := audit.recorded()
		assert.Len(t, events, 1)
		assert.Equal(t, constvars.AuditActionCodeRedeemed, events[0].action)
		detail, ok := events[0].detail.(map[string]string)
		assert.True(t, ok)
		assert.Equal(t, "pos-receipt-81723", detail["transaction_id"])
		assert.Equal(t, codeTestPartnerID, detail["redeemed_by"])

		published := queue.publishedEvents()
		assert.Len(t, published, 1)
		assert.Equal(t, constvars.EventTypeCodeRedeemed, published[0].Type)
	})

	t.Run("ShouldNormalizePastedCodeBeforeRedeeming", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          "  " + strings.ToLower(codeTestValue) + " ",
			TransactionID: "pos-receipt-81724",
		})

		assert.NoError(t, err)
		assert.True(t, response.Valid)
	})

	t.Run("ShouldReturnNotFoundShapeForMalformedCode", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          "TOTALLY-BOGUS",
			TransactionID: "pos-receipt-81725",
		})

		assert.NoError(t, err, "a malformed code is a classified outcome, not a request error")
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorNotFound, response.Error)
		assert.Zero(t, codeRepo.redeemCalls, "a code that cannot exist must not reach the store")
	})

	t.Run("ShouldRejectMissingTransactionID", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{Code: codeTestValue})

		assert.Error(t, err)
		assert.Nil(t, response)
		assert.Zero(t, codeRepo.redeemCalls)
	})

	t.Run("ShouldClassifyUnknownCode", func(t *testing.T) {
		uc := newCodeUsecase(&stubVerificationCodeRepository{}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81726",
		})

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorNotFound, response.Error)
	})

	t.Run("ShouldClassifyAlreadyUsedCode", func(t *testing.T) {
		used := liveCode()
		used.Status = models.CodeUsed
		usedAt := time.Now().UTC().Add(-time.Hour)
		used.UsedAt = &usedAt
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: used}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81727",
		})

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorAlreadyUsed, response.Error)
	})

	t.Run("ShouldClassifyLapsedCodeBySweptLabel", func(t *testing.T) {
		expired := liveCode()
		expired.Status = models.CodeExpired
		expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: expired}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81728",
		})

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorExpired, response.Error)
	})

	t.Run("ShouldClassifyLapsedCodeByTimestampAheadOfStaleLabel", func(t *testing.T) {
		// Lapsed but not yet relabeled by the sweeper: still reads unused.
		stale := liveCode()
		stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: stale}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81729",
		})

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorExpired, response.Error)
	})

	t.Run("ShouldSurfaceUnclassifiableRejection", func(t *testing.T) {
		// The store rejected the redeem, yet the code still reads live.
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: liveCode()}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81730",
		})

		assert.Nil(t, response)
		assertCustomErrorStatus(t, err, constvars.StatusInternalServerError)
	})

	t.Run("ShouldLetExactlyOneContendingPartnerWin", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		const contenders = 8
		results := make([]*responses.CodeRedemption, contenders)
		errs := make([]error, contenders)

		var wg sync.WaitGroup
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
					Code:          codeTestValue,
					TransactionID: "pos-receipt-contended",
				})
			}(i)
		}
		wg.Wait()

		wins := 0
		for i := 0; i < contenders; i++ {
			assert.NoError(t, errs[i])
			if results[i].Valid {
				wins++
				continue
			}
			assert.Equal(t, responses.CodeRedemptionErrorAlreadyUsed, results[i].Error)
		}
		assert.Equal(t, 1, wins, "a contended code must redeem exactly once")
		assert.Equal(t, contenders, codeRepo.redeemCalls)
	})

	t.Run("ShouldDegradeSessionLookupWithoutFailingRedemption", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{findErr: errors.New("session store unavailable")}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81731",
		})

		assert.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Nil(t, response.Session, "a session fetch fault degrades the response, the code already changed hands")
	})

	t.Run("ShouldNotFailRedemptionWhenEventPublishFails", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{redeemable: liveCode()}
		queue := &stubEventQueue{publishErr: errors.New("broker unavailable")}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, queue)

		response, err := uc.RedeemCode(context.Background(), codeTestTenant(t), codeTestPartnerID, &requests.RedeemCode{
			Code:          codeTestValue,
			TransactionID: "pos-receipt-81732",
		})

		assert.NoError(t, err)
		assert.True(t, response.Valid)
	})
}

func TestCheckCode(t *testing.T) {
	t.Run("ShouldReportRedeemableCodeWithoutConsumingIt", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{byCode: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.CheckCode(context.Background(), codeTestTenant(t), codeTestValue)

		assert.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Equal(t, string(models.CodeUnused), response.Code.Status)
		assert.Equal(t, string(eligibility.OutcomeEligible), response.Session.Outcome)
		assert.Zero(t, codeRepo.redeemCalls, "check must never consume")
	})

	t.Run("ShouldNormalizeBeforeLookup", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{byCode: liveCode()}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{session: completedEligibleSession()}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.CheckCode(context.Background(), codeTestTenant(t), " "+strings.ToLower(codeTestValue))

		assert.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Equal(t, codeTestValue, codeRepo.findArg)
	})

	t.Run("ShouldReportMalformedCodeAsNotFound", func(t *testing.T) {
		codeRepo := &stubVerificationCodeRepository{}
		uc := newCodeUsecase(codeRepo, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.CheckCode(context.Background(), codeTestTenant(t), "nope")

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorNotFound, response.Error)
		assert.Empty(t, codeRepo.findArg, "a code that cannot exist must not reach the store")
	})

	t.Run("ShouldReportUsedCode", func(t *testing.T) {
		used := liveCode()
		used.Status = models.CodeUsed
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: used}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.CheckCode(context.Background(), codeTestTenant(t), codeTestValue)

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorAlreadyUsed, response.Error)
	})

	t.Run("ShouldReportLapsedCodeByTimestamp", func(t *testing.T) {
		stale := liveCode()
		stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		uc := newCodeUsecase(&stubVerificationCodeRepository{byCode: stale}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		response, err := uc.CheckCode(context.Background(), codeTestTenant(t), codeTestValue)

		assert.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, responses.CodeRedemptionErrorExpired, response.Error)
	})
}

func TestMarkExpiredCodes(t *testing.T) {
	t.Run("ShouldStayQuietWhenNothingLapsed", func(t *testing.T) {
		audit := &stubAuditRecorder{}
		uc := newCodeUsecase(&stubVerificationCodeRepository{}, &stubScreeningSessionRepository{}, audit, &stubEventQueue{})

		swept, err := uc.MarkExpiredCodes(context.Background(), codeTestTenant(t))

		assert.NoError(t, err)
		assert.Zero(t, swept)
		assert.Empty(t, audit.recorded())
	})

	t.Run("ShouldAuditSweepUnderSystemActor", func(t *testing.T) {
		audit := &stubAuditRecorder{}
		uc := newCodeUsecase(&stubVerificationCodeRepository{sweptCount: 4}, &stubScreeningSessionRepository{}, audit, &stubEventQueue{})

		swept, err := uc.MarkExpiredCodes(context.Background(), codeTestTenant(t))

		assert.NoError(t, err)
		assert.Equal(t, int64(4), swept)

		events := audit.recorded()
		assert.Len(t, events, 1)
		assert.Equal(t, constvars.AuditActorSystemSweeper, events[0].actor)
		assert.Equal(t, constvars.AuditActionCodesExpired, events[0].action)
		detail, ok := events[0].detail.(map[string]int64)
		assert.True(t, ok)
		assert.Equal(t, int64(4), detail["swept_count"])
	})

	t.Run("ShouldPropagateSweepFault", func(t *testing.T) {
		uc := newCodeUsecase(&stubVerificationCodeRepository{sweepErr: errors.New("store unavailable")}, &stubScreeningSessionRepository{}, &stubAuditRecorder{}, &stubEventQueue{})

		swept, err := uc.MarkExpiredCodes(context.Background(), codeTestTenant(t))

		assert.Error(t, err)
		assert.Zero(t, swept)
	})
}
