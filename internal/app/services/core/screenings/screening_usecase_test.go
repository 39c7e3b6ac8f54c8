package screenings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

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
	screeningTestTenantID  = "3f2c8a94-0d6e-4f24-9c57-1f0de7a20b11"
	screeningTestProgramID = "7a1d2e3f-4b5c-6d7e-8f90-a1b2c3d4e5f6"
	screeningTestVersionID = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	screeningTestSessionID = "b0e79c3a-54d1-4a8e-8f2b-6f4f9a1c2d3e"
)

type fakeSessionStore struct {
	mu sync.Mutex

	created   []*models.ScreeningSession
	createErr error

	session *models.ScreeningSession
	reread  *models.ScreeningSession
	finds   int

	completeMatched bool
	completeErr     error
	completeCalls   int
	completedWith   eligibility.Answers
	outcome         eligibility.Outcome
}

func (s *fakeSessionStore) CreateScreeningSession(ctx context.Context, tc tenant.Context, session *models.ScreeningSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, session)
	return session.ID, nil
}

func (s *fakeSessionStore) FindByID(ctx context.Context, tc tenant.Context, sessionID string) (*models.ScreeningSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	// A completion miss re-reads; the second read returns the re-read
	// fixture, which may be nil when the session vanished.
	if s.finds > 1 {
		return s.reread, nil
	}
	return s.session, nil
}

func (s *fakeSessionStore) CompleteSession(ctx context.Context, tc tenant.Context, sessionID string, answers eligibility.Answers, outcome eligibility.Outcome, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeCalls++
	if s.completeErr != nil {
		return false, s.completeErr
	}
	if !s.completeMatched {
		return false, nil
	}
	s.completedWith = answers
	s.outcome = outcome
	return true, nil
}

type fakeVersionStore struct {
	version *models.QuestionnaireVersion
	findErr error
}

func (s *fakeVersionStore) CreateQuestionnaireVersion(ctx context.Context, tc tenant.Context, version *models.QuestionnaireVersion) (string, error) {
	return "", errors.New("not used in this test")
}

func (s *fakeVersionStore) FindByID(ctx context.Context, tc tenant.Context, versionID string) (*models.QuestionnaireVersion, error) {
	return s.version, s.findErr
}

func (s *fakeVersionStore) FindByProgramID(ctx context.Context, tc tenant.Context, programID string) ([]models.QuestionnaireVersion, error) {
	return nil, errors.New("not used in this test")
}

func (s *fakeVersionStore) FindLatestVersionNumber(ctx context.Context, tc tenant.Context, programID string) (int, error) {
	return 0, errors.New("not used in this test")
}

func (s *fakeVersionStore) UpdateStatus(ctx context.Context, tc tenant.Context, versionID string, status models.QuestionnaireVersionStatus) error {
	return errors.New("not used in this test")
}

type fakeQuestionnaireResolver struct {
	active    *models.QuestionnaireVersion
	activeErr error
}

func (f *fakeQuestionnaireResolver) PublishQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string, request *requests.PublishQuestionnaireVersion) (*responses.QuestionnaireVersion, error) {
	return nil, errors.New("not used in this test")
}

func (f *fakeQuestionnaireResolver) GetQuestionnaireVersionByID(ctx context.Context, tc tenant.Context, versionID string) (*responses.QuestionnaireVersion, error) {
	return nil, errors.New("not used in this test")
}

func (f *fakeQuestionnaireResolver) GetQuestionnaireVersionsByProgram(ctx context.Context, tc tenant.Context, programID string) ([]responses.QuestionnaireVersion, error) {
	return nil, errors.New("not used in this test")
}

func (f *fakeQuestionnaireResolver) GetActiveQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string) (*models.QuestionnaireVersion, error) {
	return f.active, f.activeErr
}

type fakeTokenMinter struct {
	token   string
	mintErr error
	minted  []*models.ScreeningSession
}

func (f *fakeTokenMinter) GenerateScreeningToken(ctx context.Context, session *models.ScreeningSession) (string, error) {
	f.minted = append(f.minted, session)
	return f.token, f.mintErr
}

func (f *fakeTokenMinter) ParseScreeningToken(ctx context.Context, token string) (*models.Session, error) {
	return nil, errors.New("not used in this test")
}

type capturedAudit struct {
	actor      string
	action     string
	resourceID string
	detail     interface{}
}

type fakeAuditTrail struct {
	mu     sync.Mutex
	events []capturedAudit
}

func (f *fakeAuditTrail) Record(ctx context.Context, tc tenant.Context, actor, action, resource, resourceID string, detail interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedAudit{actor: actor, action: action, resourceID: resourceID, detail: detail})
	return nil
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []models.DomainEvent
	publishErr error
}

func (f *fakeQueue) Publish(ctx context.Context, event models.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return f.publishErr
}

func (f *fakeQueue) Reenqueue(ctx context.Context, event models.DomainEvent) error { return nil }

func (f *fakeQueue) EnqueueToDeadQueue(ctx context.Context, event models.DomainEvent) error {
	return nil
}

func (f *fakeQueue) FetchN(ctx context.Context, max int) ([]models.QueuedEvent, error) {
	return nil, nil
}

func (f *fakeQueue) AckMessage(ctx context.Context, deliveryTag uint64) error { return nil }

func screeningTestTenant(t *testing.T) tenant.Context {
	t.Helper()
	tc, err := tenant.Bind(screeningTestTenantID)
	assert.NoError(t, err)
	return tc
}

// diagnosisQuestionnaire is a minimal published version: a confirmed
// diagnosis plus an adult age reads eligible, an unconfirmed diagnosis
// reads ineligible, anything else falls back to consult_professional.
func diagnosisQuestionnaire() *models.QuestionnaireVersion {
	confirmed := true
	notConfirmed := false
	adultAge := float64(18)
	return &models.QuestionnaireVersion{
		ID:        screeningTestVersionID,
		TenantID:  screeningTestTenantID,
		ProgramID: screeningTestProgramID,
		Version:   2,
		Status:    models.VersionPublished,
		Questions: []eligibility.Question{
			{ID: "diagnosis_confirmed", Text: "Has the diagnosis been confirmed?", Type: eligibility.QuestionBoolean, Required: true},
			{ID: "age", Text: "Patient age", Type: eligibility.QuestionNumeric, Required: true},
		},
		Ruleset: eligibility.Ruleset{
			Ineligible: []eligibility.ConditionGroup{
				{All: []eligibility.Condition{{QuestionID: "diagnosis_confirmed", Operator: eligibility.OperatorEquals, BoolValue: &notConfirmed}}},
			},
			Eligible: []eligibility.ConditionGroup{
				{All: []eligibility.Condition{
					{QuestionID: "diagnosis_confirmed", Operator: eligibility.OperatorEquals, BoolValue: &confirmed},
					{QuestionID: "age", Operator: eligibility.OperatorGreaterThanOrEqual, NumberValue: &adultAge},
				}},
			},
		},
	}
}

func startedSession() *models.ScreeningSession {
	return &models.ScreeningSession{
		ID:        screeningTestSessionID,
		TenantID:  screeningTestTenantID,
		ProgramID: screeningTestProgramID,
		VersionID: screeningTestVersionID,
		Status:    models.ScreeningStarted,
	}
}

func newScreeningUsecaseForTest(store *fakeSessionStore, versions *fakeVersionStore, resolver *fakeQuestionnaireResolver, minter *fakeTokenMinter, audit *fakeAuditTrail, domainQueue, archiveQueue *fakeQueue) *screeningUsecase {
	return &screeningUsecase{
		ScreeningSessionRepository:     store,
		QuestionnaireVersionRepository: versions,
		QuestionnaireUsecase:           resolver,
		SessionTokenService:            minter,
		AuditUsecase:                   audit,
		DomainEventQueue:               domainQueue,
		ArchiveQueue:                   archiveQueue,
		Log:                            zap.NewNop(),
	}
}

func assertScreeningErrorStatus(t *testing.T, err error, statusCode int) {
	t.Helper()
	var customErr *exceptions.CustomError
	assert.ErrorAs(t, err, &customErr)
	assert.Equal(t, statusCode, customErr.StatusCode)
}

func TestCreateScreeningSession(t *testing.T) {
	t.Run("ShouldPinActiveVersionAndMintSessionToken", func(t *testing.T) {
		store := &fakeSessionStore{}
		minter := &fakeTokenMinter{token: "screening-token"}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{}, &fakeQuestionnaireResolver{active: diagnosisQuestionnaire()}, minter, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		response, err := uc.CreateScreeningSession(context.Background(), screeningTestTenant(t), screeningTestProgramID)

		assert.NoError(t, err)
		assert.Equal(t, screeningTestProgramID, response.ProgramID)
		assert.Equal(t, screeningTestVersionID, response.VersionID)
		assert.Equal(t, string(models.ScreeningStarted), response.Status)
		assert.Equal(t, "screening-token", response.SessionToken)
		assert.NotEmpty(t, response.SessionID)

		assert.Len(t, store.created, 1)
		assert.Equal(t, screeningTestVersionID, store.created[0].VersionID, "the session must pin the version that was active at creation")
		assert.Len(t, minter.minted, 1)
	})

	t.Run("ShouldPropagateMissingActiveVersion", func(t *testing.T) {
		store := &fakeSessionStore{}
		resolver := &fakeQuestionnaireResolver{activeErr: exceptions.ErrNoActiveQuestionnaireVersion(errors.New("program has no active version"))}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{}, resolver, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		response, err := uc.CreateScreeningSession(context.Background(), screeningTestTenant(t), screeningTestProgramID)

		assert.Error(t, err)
		assert.Nil(t, response)
		assert.Empty(t, store.created, "no session may exist without a pinned version")
	})

	t.Run("ShouldSurfaceTokenMintFault", func(t *testing.T) {
		minter := &fakeTokenMinter{mintErr: errors.New("signing key unavailable")}
		uc := newScreeningUsecaseForTest(&fakeSessionStore{}, &fakeVersionStore{}, &fakeQuestionnaireResolver{active: diagnosisQuestionnaire()}, minter, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		response, err := uc.CreateScreeningSession(context.Background(), screeningTestTenant(t), screeningTestProgramID)

		assert.Error(t, err)
		assert.Nil(t, response)
	})
}

func TestSubmitAnswers(t *testing.T) {
	eligibleAnswers := map[string]interface{}{"diagnosis_confirmed": true, "age": float64(45)}

	t.Run("ShouldEvaluateAndCompleteEligibleSession", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession(), completeMatched: true}
		audit := &fakeAuditTrail{}
		domainQueue := &fakeQueue{}
		archiveQueue := &fakeQueue{}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, audit, domainQueue, archiveQueue)

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.NoError(t, err)
		assert.Equal(t, string(eligibility.OutcomeEligible), result.Outcome)
		assert.Equal(t, screeningTestSessionID, result.SessionID)
		assert.False(t, result.CompletedAt.IsZero())

		assert.Equal(t, 1, store.completeCalls)
		assert.Equal(t, eligibility.OutcomeEligible, store.outcome)
		assert.Equal(t, eligibility.Answers(eligibleAnswers), store.completedWith)

		assert.Len(t, audit.events, 1)
		assert.Equal(t, constvars.AuditActionScreeningCompleted, audit.events[0].action)
		assert.Equal(t, screeningTestSessionID, audit.events[0].resourceID)

		assert.Len(t, domainQueue.published, 1)
		assert.Equal(t, constvars.EventTypeScreeningCompleted, domainQueue.published[0].Type)
		assert.Len(t, archiveQueue.published, 1)
		assert.Equal(t, constvars.EventTypeOutcomeArchiveRequested, archiveQueue.published[0].Type)
		assert.Contains(t, string(archiveQueue.published[0].Payload), `"answers"`, "the archive snapshot must carry the submitted answers")
		assert.Contains(t, string(archiveQueue.published[0].Payload), `"version":2`, "the archive snapshot must carry the version number it evaluated under")
	})

	t.Run("ShouldPreferIneligibleWhenBothBucketsMatch", func(t *testing.T) {
		version := diagnosisQuestionnaire()
		// Widen the ineligible bucket so an eligible answer set trips both.
		maxAge := float64(200)
		version.Ruleset.Ineligible = append(version.Ruleset.Ineligible, eligibility.ConditionGroup{
			All: []eligibility.Condition{{QuestionID: "age", Operator: eligibility.OperatorLessThan, NumberValue: &maxAge}},
		})
		store := &fakeSessionStore{session: startedSession(), completeMatched: true}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: version}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.NoError(t, err)
		assert.Equal(t, string(eligibility.OutcomeIneligible), result.Outcome)
	})

	t.Run("ShouldFallBackToConsultProfessional", func(t *testing.T) {
		// Confirmed diagnosis but underage: neither bucket matches.
		store := &fakeSessionStore{session: startedSession(), completeMatched: true}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{
			Answers: map[string]interface{}{"diagnosis_confirmed": true, "age": float64(12)},
		})

		assert.NoError(t, err)
		assert.Equal(t, string(eligibility.OutcomeConsultProfessional), result.Outcome)
	})

	t.Run("ShouldRejectEmptyAnswerSet", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession()}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{})

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Zero(t, store.finds, "validation must reject before touching the store")
	})

	t.Run("ShouldRejectUnknownSession", func(t *testing.T) {
		uc := newScreeningUsecaseForTest(&fakeSessionStore{}, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusNotFound)
	})

	t.Run("ShouldRejectAlreadyCompletedSession", func(t *testing.T) {
		completed := startedSession()
		completed.Status = models.ScreeningCompleted
		store := &fakeSessionStore{session: completed}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusConflict)
		assert.Zero(t, store.completeCalls)
	})

	t.Run("ShouldRejectIncompleteAnswersWithoutCompleting", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession()}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{
			Answers: map[string]interface{}{"diagnosis_confirmed": true},
		})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusUnprocessableEntity)
		assert.Zero(t, store.completeCalls, "an invalid answer set must not complete the session")
	})

	t.Run("ShouldFailClosedWhenPinnedVersionIsMissing", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession()}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusInternalServerError)
		assert.Zero(t, store.completeCalls, "evaluation must not guess against unknown rules")
	})

	t.Run("ShouldClassifyCompletionRaceAsAlreadyCompleted", func(t *testing.T) {
		completedTwin := startedSession()
		completedTwin.Status = models.ScreeningCompleted
		store := &fakeSessionStore{session: startedSession(), reread: completedTwin}
		audit := &fakeAuditTrail{}
		domainQueue := &fakeQueue{}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, audit, domainQueue, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusConflict)
		assert.Equal(t, 1, store.completeCalls)
		assert.Empty(t, audit.events, "the loser of a completion race owns no side effects")
		assert.Empty(t, domainQueue.published)
	})

	t.Run("ShouldClassifyVanishedSessionAsNotFound", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession()}
		// First read sees the session, the post-miss re-read sees nothing.
		store.reread = nil
		store.completeMatched = false
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.Nil(t, result)
		assertScreeningErrorStatus(t, err, constvars.StatusNotFound)
	})

	t.Run("ShouldNotSurfaceFanoutFaults", func(t *testing.T) {
		store := &fakeSessionStore{session: startedSession(), completeMatched: true}
		domainQueue := &fakeQueue{publishErr: errors.New("broker unavailable")}
		archiveQueue := &fakeQueue{publishErr: errors.New("broker unavailable")}
		uc := newScreeningUsecaseForTest(store, &fakeVersionStore{version: diagnosisQuestionnaire()}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, domainQueue, archiveQueue)

		result, err := uc.SubmitAnswers(context.Background(), screeningTestTenant(t), screeningTestSessionID, &requests.SubmitAnswers{Answers: eligibleAnswers})

		assert.NoError(t, err, "the session is durable before fan-out, so fan-out faults stay internal")
		assert.Equal(t, string(eligibility.OutcomeEligible), result.Outcome)
	})
}

func TestGetScreeningSessionByID(t *testing.T) {
	t.Run("ShouldReturnSessionForTenant", func(t *testing.T) {
		completedAt := time.Now().UTC().Add(-time.Minute)
		session := startedSession()
		session.Status = models.ScreeningCompleted
		session.Outcome = eligibility.OutcomeEligible
		session.CompletedAt = &completedAt
		uc := newScreeningUsecaseForTest(&fakeSessionStore{session: session}, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		response, err := uc.GetScreeningSessionByID(context.Background(), screeningTestTenant(t), screeningTestSessionID)

		assert.NoError(t, err)
		assert.Equal(t, screeningTestSessionID, response.ID)
		assert.Equal(t, string(models.ScreeningCompleted), response.Status)
		assert.Equal(t, string(eligibility.OutcomeEligible), response.Outcome)
	})

	t.Run("ShouldRejectUnknownSession", func(t *testing.T) {
		uc := newScreeningUsecaseForTest(&fakeSessionStore{}, &fakeVersionStore{}, &fakeQuestionnaireResolver{}, &fakeTokenMinter{}, &fakeAuditTrail{}, &fakeQueue{}, &fakeQueue{})

		response, err := uc.GetScreeningSessionByID(context.Background(), screeningTestTenant(t), screeningTestSessionID)

		assert.Nil(t, response)
		assertScreeningErrorStatus(t, err, constvars.StatusNotFound)
	})
}
