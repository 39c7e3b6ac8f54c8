package screenings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/eligibility"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/metrics"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type screeningUsecase struct {
	ScreeningSessionRepository     contracts.ScreeningSessionRepository
	QuestionnaireVersionRepository contracts.QuestionnaireVersionRepository
	QuestionnaireUsecase           contracts.QuestionnaireUsecase
	SessionTokenService            contracts.SessionTokenService
	AuditUsecase                   contracts.AuditUsecase
	DomainEventQueue               contracts.EventQueueService
	ArchiveQueue                   contracts.EventQueueService
	Log                            *zap.Logger
}

var (
	screeningUsecaseInstance contracts.ScreeningUsecase
	onceScreeningUsecase     sync.Once
)

func NewScreeningUsecase(
	screeningSessionMongoRepository contracts.ScreeningSessionRepository,
	questionnaireVersionMongoRepository contracts.QuestionnaireVersionRepository,
	questionnaireUsecase contracts.QuestionnaireUsecase,
	sessionTokenService contracts.SessionTokenService,
	auditUsecase contracts.AuditUsecase,
	domainEventQueue contracts.EventQueueService,
	archiveQueue contracts.EventQueueService,
	logger *zap.Logger,
) contracts.ScreeningUsecase {
	onceScreeningUsecase.Do(func() {
		screeningUsecaseInstance = &screeningUsecase{
			ScreeningSessionRepository:     screeningSessionMongoRepository,
			QuestionnaireVersionRepository: questionnaireVersionMongoRepository,
			QuestionnaireUsecase:           questionnaireUsecase,
			SessionTokenService:            sessionTokenService,
			AuditUsecase:                   auditUsecase,
			DomainEventQueue:               domainEventQueue,
			ArchiveQueue:                   archiveQueue,
			Log:                            logger,
		}
	})
	return screeningUsecaseInstance
}

// CreateScreeningSession pins the program's active questionnaire version
// to a new session. The pin is what keeps later submissions stable: the
// session evaluates against this exact version even if the program
// activates a newer one in the meantime.
func (uc *screeningUsecase) CreateScreeningSession(ctx context.Context, tc tenant.Context, programID string) (*responses.CreateScreening, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("screeningUsecase.CreateScreeningSession called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)

	version, err := uc.QuestionnaireUsecase.GetActiveQuestionnaireVersion(ctx, tc, programID)
	if err != nil {
		uc.Log.Error("screeningUsecase.CreateScreeningSession error resolving active version",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProgramIDKey, programID),
			zap.Error(err),
		)
		return nil, err
	}

	session := &models.ScreeningSession{
		ID:        uuid.NewString(),
		ProgramID: programID,
		VersionID: version.ID,
		Status:    models.ScreeningStarted,
	}
	session.SetCreatedAtUpdatedAt()

	sessionID, err := uc.ScreeningSessionRepository.CreateScreeningSession(ctx, tc, session)
	if err != nil {
		uc.Log.Error("screeningUsecase.CreateScreeningSession error creating session",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	token, err := uc.SessionTokenService.GenerateScreeningToken(ctx, session)
	if err != nil {
		uc.Log.Error("screeningUsecase.CreateScreeningSession error minting session token",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("screeningUsecase.CreateScreeningSession succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
		zap.String("version_id", version.ID),
	)
	return &responses.CreateScreening{
		SessionID:    sessionID,
		ProgramID:    programID,
		VersionID:    version.ID,
		Status:       string(session.Status),
		SessionToken: token,
	}, nil
}

// SubmitAnswers validates the full answer set against the pinned version,
// evaluates the outcome and completes the session. Completion happens as
// one conditional update, so a session completes at most once no matter
// how submissions interleave.
func (uc *screeningUsecase) SubmitAnswers(ctx context.Context, tc tenant.Context, sessionID string, request *requests.SubmitAnswers) (*responses.ScreeningResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("screeningUsecase.SubmitAnswers called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
	)

	utils.SanitizeSubmitAnswersRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("screeningUsecase.SubmitAnswers validation failed",
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
	if session.Status == models.ScreeningCompleted {
		return nil, exceptions.ErrScreeningAlreadyCompleted(fmt.Errorf("session %s already completed", sessionID))
	}

	version, err := uc.QuestionnaireVersionRepository.FindByID(ctx, tc, session.VersionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		// The session pins a version that no longer resolves. Evaluation
		// fails closed instead of guessing against different rules.
		return nil, exceptions.ErrRulesetConfigFault(fmt.Errorf("pinned version %s missing for session %s", session.VersionID, sessionID))
	}

	outcome, err := eligibility.Evaluate(version.Questions, version.Ruleset, request.Answers)
	if err != nil {
		var answerErr *eligibility.AnswerValidationError
		if errors.As(err, &answerErr) {
			uc.Log.Info("screeningUsecase.SubmitAnswers rejected incomplete answers",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingSessionIDKey, sessionID),
				zap.Int("issue_count", len(answerErr.Issues)),
			)
			return nil, exceptions.ErrScreeningAnswersIncomplete(err)
		}
		uc.Log.Error("screeningUsecase.SubmitAnswers evaluation fault",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, sessionID),
			zap.Error(err),
		)
		return nil, exceptions.ErrRulesetConfigFault(err)
	}

	completedAt := time.Now().UTC()
	matched, err := uc.ScreeningSessionRepository.CompleteSession(ctx, tc, sessionID, request.Answers, outcome, completedAt)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Lost the completion race or the session vanished; re-read to
		// tell the two apart.
		current, findErr := uc.ScreeningSessionRepository.FindByID(ctx, tc, sessionID)
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, exceptions.ErrScreeningNotFound(fmt.Errorf("session %s disappeared during completion", sessionID))
		}
		return nil, exceptions.ErrScreeningAlreadyCompleted(fmt.Errorf("session %s completed concurrently", sessionID))
	}

	session.Status = models.ScreeningCompleted
	session.Answers = request.Answers
	session.Outcome = outcome
	session.CompletedAt = &completedAt

	metrics.ScreeningsCompleted.WithLabelValues(string(outcome)).Inc()

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionScreeningCompleted, constvars.AuditResourceScreeningSession, sessionID, map[string]string{
		"outcome":    string(outcome),
		"version_id": session.VersionID,
	}); err != nil {
		uc.Log.Warn("screeningUsecase.SubmitAnswers audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.publishCompletionEvents(ctx, tc, requestID, session, version)

	uc.Log.Info("screeningUsecase.SubmitAnswers succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
		zap.String(constvars.LoggingOutcomeKey, string(outcome)),
	)
	return &responses.ScreeningResult{
		SessionID:   sessionID,
		Outcome:     string(outcome),
		CompletedAt: completedAt,
	}, nil
}

func (uc *screeningUsecase) GetScreeningSessionByID(ctx context.Context, tc tenant.Context, sessionID string) (*responses.ScreeningSession, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("screeningUsecase.GetScreeningSessionByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSessionIDKey, sessionID),
	)

	session, err := uc.ScreeningSessionRepository.FindByID(ctx, tc, sessionID)
	if err != nil {
		uc.Log.Error("screeningUsecase.GetScreeningSessionByID error fetching session",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	if session == nil {
		return nil, exceptions.ErrScreeningNotFound(fmt.Errorf("session %s not found for tenant", sessionID))
	}

	response := session.ConvertIntoResponse()
	return &response, nil
}

type screeningCompletedPayload struct {
	SessionID   string    `json:"session_id"`
	ProgramID   string    `json:"program_id"`
	VersionID   string    `json:"version_id"`
	Outcome     string    `json:"outcome"`
	CompletedAt time.Time `json:"completed_at"`
}

// outcomeSnapshot is the archive document: everything a reviewer needs to
// reproduce the decision, including the answers and the version they ran
// against.
type outcomeSnapshot struct {
	SessionID   string              `json:"session_id"`
	TenantID    string              `json:"tenant_id"`
	ProgramID   string              `json:"program_id"`
	VersionID   string              `json:"version_id"`
	Version     int                 `json:"version"`
	Answers     eligibility.Answers `json:"answers"`
	Outcome     string              `json:"outcome"`
	CompletedAt time.Time           `json:"completed_at"`
}

// publishCompletionEvents fans the completed session out to the domain
// event stream and the archive queue. The session is already durable, so
// fan-out faults are logged and counted, never surfaced to the caller.
func (uc *screeningUsecase) publishCompletionEvents(ctx context.Context, tc tenant.Context, requestID string, session *models.ScreeningSession, version *models.QuestionnaireVersion) {
	occurredAt := time.Now().UTC()

	eventPayload, err := json.Marshal(screeningCompletedPayload{
		SessionID:   session.ID,
		ProgramID:   session.ProgramID,
		VersionID:   session.VersionID,
		Outcome:     string(session.Outcome),
		CompletedAt: *session.CompletedAt,
	})
	if err == nil {
		err = uc.DomainEventQueue.Publish(ctx, models.DomainEvent{
			ID:         uuid.NewString(),
			Type:       constvars.EventTypeScreeningCompleted,
			TenantID:   tc.ID(),
			OccurredAt: occurredAt,
			Payload:    eventPayload,
		})
	}
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(constvars.EventTypeScreeningCompleted).Inc()
		uc.Log.Warn("screeningUsecase.publishCompletionEvents domain event publish failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, session.ID),
			zap.Error(err),
		)
	}

	snapshot, err := json.Marshal(outcomeSnapshot{
		SessionID:   session.ID,
		TenantID:    tc.ID(),
		ProgramID:   session.ProgramID,
		VersionID:   session.VersionID,
		Version:     version.Version,
		Answers:     session.Answers,
		Outcome:     string(session.Outcome),
		CompletedAt: *session.CompletedAt,
	})
	if err == nil {
		err = uc.ArchiveQueue.Publish(ctx, models.DomainEvent{
			ID:         uuid.NewString(),
			Type:       constvars.EventTypeOutcomeArchiveRequested,
			TenantID:   tc.ID(),
			OccurredAt: occurredAt,
			Payload:    snapshot,
		})
	}
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(constvars.EventTypeOutcomeArchiveRequested).Inc()
		uc.Log.Warn("screeningUsecase.publishCompletionEvents archive enqueue failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, session.ID),
			zap.Error(err),
		)
	}
}
