package questionnaires

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
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type questionnaireUsecase struct {
	QuestionnaireVersionRepository contracts.QuestionnaireVersionRepository
	ProgramRepository              contracts.ProgramRepository
	RedisRepository                contracts.RedisRepository
	AuditUsecase                   contracts.AuditUsecase
	Log                            *zap.Logger
}

var (
	questionnaireUsecaseInstance contracts.QuestionnaireUsecase
	onceQuestionnaireUsecase     sync.Once
)

func NewQuestionnaireUsecase(
	questionnaireVersionMongoRepository contracts.QuestionnaireVersionRepository,
	programMongoRepository contracts.ProgramRepository,
	redisRepository contracts.RedisRepository,
	auditUsecase contracts.AuditUsecase,
	logger *zap.Logger,
) contracts.QuestionnaireUsecase {
	onceQuestionnaireUsecase.Do(func() {
		questionnaireUsecaseInstance = &questionnaireUsecase{
			QuestionnaireVersionRepository: questionnaireVersionMongoRepository,
			ProgramRepository:              programMongoRepository,
			RedisRepository:                redisRepository,
			AuditUsecase:                   auditUsecase,
			Log:                            logger,
		}
	})
	return questionnaireUsecaseInstance
}

// PublishQuestionnaireVersion creates an immutable version from either a
// canonical ruleset or a migrated legacy rule set. All validation runs
// here at publish time; a version that stores is a version that
// evaluates.
func (uc *questionnaireUsecase) PublishQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string, request *requests.PublishQuestionnaireVersion) (*responses.QuestionnaireVersion, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("questionnaireUsecase.PublishQuestionnaireVersion called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)

	utils.SanitizePublishQuestionnaireVersionRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, err
	}

	program, err := uc.ProgramRepository.FindByID(ctx, tc, programID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, exceptions.ErrProgramNotFound(fmt.Errorf("program %s not found for tenant", programID))
	}

	if err := eligibility.ValidateQuestions(request.Questions); err != nil {
		uc.Log.Error("questionnaireUsecase.PublishQuestionnaireVersion invalid questions",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrRulesetValidation(err)
	}

	ruleset, err := uc.resolveRuleset(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := eligibility.ValidateRuleset(request.Questions, ruleset); err != nil {
		uc.Log.Error("questionnaireUsecase.PublishQuestionnaireVersion invalid ruleset",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrRulesetValidation(err)
	}

	latest, err := uc.QuestionnaireVersionRepository.FindLatestVersionNumber(ctx, tc, programID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	version := &models.QuestionnaireVersion{
		ID:          uuid.NewString(),
		ProgramID:   programID,
		Version:     latest + 1,
		Status:      models.VersionPublished,
		Questions:   request.Questions,
		Ruleset:     ruleset,
		PublishedAt: &now,
	}
	version.SetCreatedAtUpdatedAt()

	versionID, err := uc.QuestionnaireVersionRepository.CreateQuestionnaireVersion(ctx, tc, version)
	if err != nil {
		uc.Log.Error("questionnaireUsecase.PublishQuestionnaireVersion error creating version",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	auditDetail := map[string]interface{}{
		"program_id":     programID,
		"version":        version.Version,
		"question_count": len(request.Questions),
	}
	if len(request.LegacyRules) > 0 {
		auditDetail["migrated_from_legacy"] = eligibility.DescribeLegacyRules(request.LegacyRules)
	}
	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionVersionPublished, constvars.AuditResourceQuestionnaireVersion, versionID, auditDetail); err != nil {
		uc.Log.Warn("questionnaireUsecase.PublishQuestionnaireVersion audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.Log.Info("questionnaireUsecase.PublishQuestionnaireVersion succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("version_id", versionID),
		zap.Int("version", version.Version),
	)
	response := version.ConvertIntoResponse()
	return &response, nil
}

// resolveRuleset enforces the exactly-one-of contract between the
// canonical ruleset and the legacy rule list.
func (uc *questionnaireUsecase) resolveRuleset(ctx context.Context, request *requests.PublishQuestionnaireVersion) (eligibility.Ruleset, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	hasRuleset := request.Ruleset != nil
	hasLegacy := len(request.LegacyRules) > 0

	if hasRuleset && hasLegacy {
		return eligibility.Ruleset{}, exceptions.ErrRulesetValidation(errors.New(constvars.ErrClientRulesetAndLegacyBothSet))
	}
	if !hasRuleset && !hasLegacy {
		return eligibility.Ruleset{}, exceptions.ErrRulesetValidation(errors.New(constvars.ErrClientRulesetMissing))
	}
	if hasRuleset {
		return *request.Ruleset, nil
	}

	defaultOutcome := eligibility.OutcomeConsultProfessional
	if request.LegacyDefaultOutcome != "" {
		defaultOutcome = eligibility.Outcome(request.LegacyDefaultOutcome)
	}

	migrated, err := eligibility.MigrateLegacyRules(request.LegacyRules, defaultOutcome, request.Questions)
	if err != nil {
		uc.Log.Error("questionnaireUsecase.resolveRuleset legacy migration failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return eligibility.Ruleset{}, exceptions.ErrLegacyRuleMigration(err)
	}
	return migrated, nil
}

func (uc *questionnaireUsecase) GetQuestionnaireVersionByID(ctx context.Context, tc tenant.Context, versionID string) (*responses.QuestionnaireVersion, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("questionnaireUsecase.GetQuestionnaireVersionByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("version_id", versionID),
	)

	version, err := uc.QuestionnaireVersionRepository.FindByID(ctx, tc, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, exceptions.ErrQuestionnaireVersionNotFound(fmt.Errorf("version %s not found for tenant", versionID))
	}

	response := version.ConvertIntoResponse()
	return &response, nil
}

func (uc *questionnaireUsecase) GetQuestionnaireVersionsByProgram(ctx context.Context, tc tenant.Context, programID string) ([]responses.QuestionnaireVersion, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("questionnaireUsecase.GetQuestionnaireVersionsByProgram called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)

	versions, err := uc.QuestionnaireVersionRepository.FindByProgramID(ctx, tc, programID)
	if err != nil {
		return nil, err
	}

	response := make([]responses.QuestionnaireVersion, len(versions))
	for i := range versions {
		response[i] = versions[i].ConvertIntoResponse()
	}
	return response, nil
}

// GetActiveQuestionnaireVersion resolves the program's active version,
// serving from the redis cache when possible. A cache fault falls back
// to the store; screening never fails because redis is down.
func (uc *questionnaireUsecase) GetActiveQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID string) (*models.QuestionnaireVersion, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("questionnaireUsecase.GetActiveQuestionnaireVersion called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)

	cacheKey := fmt.Sprintf(constvars.RedisKeyActiveRulesetFormat, tc.ID(), programID)

	cached, err := uc.RedisRepository.Get(ctx, cacheKey)
	if err != nil {
		uc.Log.Warn("questionnaireUsecase.GetActiveQuestionnaireVersion cache read failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}
	if cached != "" {
		var version models.QuestionnaireVersion
		if err := json.Unmarshal([]byte(cached), &version); err == nil {
			return &version, nil
		}
		uc.Log.Warn("questionnaireUsecase.GetActiveQuestionnaireVersion cache entry unreadable, falling back to store",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, cacheKey),
		)
	}

	program, err := uc.ProgramRepository.FindByID(ctx, tc, programID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, exceptions.ErrProgramNotFound(fmt.Errorf("program %s not found for tenant", programID))
	}
	if program.ActiveVersionID == "" {
		return nil, exceptions.ErrNoActiveQuestionnaireVersion(errors.New(constvars.ErrDevRulesetNoActiveVersion))
	}

	version, err := uc.QuestionnaireVersionRepository.FindByID(ctx, tc, program.ActiveVersionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		// The pointer names a version that does not exist: a config
		// fault, so screening fails closed rather than guessing.
		return nil, exceptions.ErrNoActiveQuestionnaireVersion(fmt.Errorf("active version %s missing for program %s", program.ActiveVersionID, programID))
	}

	if err := uc.RedisRepository.Set(ctx, cacheKey, version, time.Hour); err != nil {
		uc.Log.Warn("questionnaireUsecase.GetActiveQuestionnaireVersion cache write failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}

	return version, nil
}
