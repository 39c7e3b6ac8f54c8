package programs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type programUsecase struct {
	ProgramRepository              contracts.ProgramRepository
	QuestionnaireVersionRepository contracts.QuestionnaireVersionRepository
	RedisRepository                contracts.RedisRepository
	AuditUsecase                   contracts.AuditUsecase
	Log                            *zap.Logger
}

var (
	programUsecaseInstance contracts.ProgramUsecase
	onceProgramUsecase     sync.Once
)

func NewProgramUsecase(
	programMongoRepository contracts.ProgramRepository,
	questionnaireVersionMongoRepository contracts.QuestionnaireVersionRepository,
	redisRepository contracts.RedisRepository,
	auditUsecase contracts.AuditUsecase,
	logger *zap.Logger,
) contracts.ProgramUsecase {
	onceProgramUsecase.Do(func() {
		programUsecaseInstance = &programUsecase{
			ProgramRepository:              programMongoRepository,
			QuestionnaireVersionRepository: questionnaireVersionMongoRepository,
			RedisRepository:                redisRepository,
			AuditUsecase:                   auditUsecase,
			Log:                            logger,
		}
	})
	return programUsecaseInstance
}

func (uc *programUsecase) CreateProgram(ctx context.Context, tc tenant.Context, request *requests.CreateProgram) (*responses.Program, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("programUsecase.CreateProgram called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
	)

	utils.SanitizeCreateProgramRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("programUsecase.CreateProgram validation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	program := &models.Program{
		ID:          uuid.NewString(),
		Name:        request.Name,
		DrugName:    request.DrugName,
		Description: request.Description,
		Status:      models.ProgramActive,
	}
	program.SetCreatedAtUpdatedAt()

	programID, err := uc.ProgramRepository.CreateProgram(ctx, tc, program)
	if err != nil {
		uc.Log.Error("programUsecase.CreateProgram error creating program",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionProgramCreated, constvars.AuditResourceProgram, programID, request); err != nil {
		uc.Log.Warn("programUsecase.CreateProgram audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	uc.Log.Info("programUsecase.CreateProgram succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)
	response := program.ConvertIntoResponse()
	return &response, nil
}

func (uc *programUsecase) GetPrograms(ctx context.Context, tc tenant.Context, page, pageSize int) ([]responses.Program, int, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("programUsecase.GetPrograms called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
	)

	programs, total, err := uc.ProgramRepository.FindAll(ctx, tc, page, pageSize)
	if err != nil {
		uc.Log.Error("programUsecase.GetPrograms error fetching programs",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, 0, err
	}

	response := make([]responses.Program, len(programs))
	for i := range programs {
		response[i] = programs[i].ConvertIntoResponse()
	}
	return response, total, nil
}

func (uc *programUsecase) GetProgramByID(ctx context.Context, tc tenant.Context, programID string) (*responses.Program, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("programUsecase.GetProgramByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
	)

	program, err := uc.ProgramRepository.FindByID(ctx, tc, programID)
	if err != nil {
		uc.Log.Error("programUsecase.GetProgramByID error fetching program",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	if program == nil {
		return nil, exceptions.ErrProgramNotFound(fmt.Errorf("program %s not found for tenant", programID))
	}

	response := program.ConvertIntoResponse()
	return &response, nil
}

// ActivateQuestionnaireVersion swaps the program's active pointer to the
// given published version and retires the previously active one. Version
// documents themselves never change; only the pointer moves.
func (uc *programUsecase) ActivateQuestionnaireVersion(ctx context.Context, tc tenant.Context, programID, versionID string) (*responses.Program, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("programUsecase.ActivateQuestionnaireVersion called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
		zap.String("version_id", versionID),
	)

	program, err := uc.ProgramRepository.FindByID(ctx, tc, programID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, exceptions.ErrProgramNotFound(fmt.Errorf("program %s not found for tenant", programID))
	}

	version, err := uc.QuestionnaireVersionRepository.FindByID(ctx, tc, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil || version.ProgramID != programID {
		return nil, exceptions.ErrQuestionnaireVersionNotFound(fmt.Errorf("version %s not found for program %s", versionID, programID))
	}
	if version.Status != models.VersionPublished {
		return nil, exceptions.ErrRulesetValidation(errors.New(constvars.ErrClientVersionNotPublished))
	}

	previousVersionID := program.ActiveVersionID
	if previousVersionID == versionID {
		response := program.ConvertIntoResponse()
		return &response, nil
	}

	if err := uc.ProgramRepository.UpdateActiveVersion(ctx, tc, programID, versionID); err != nil {
		uc.Log.Error("programUsecase.ActivateQuestionnaireVersion error updating pointer",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	if previousVersionID != "" {
		if err := uc.QuestionnaireVersionRepository.UpdateStatus(ctx, tc, previousVersionID, models.VersionRetired); err != nil {
			uc.Log.Warn("programUsecase.ActivateQuestionnaireVersion error retiring previous version",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String("version_id", previousVersionID),
				zap.Error(err),
			)
		}
	}

	// Drop the cached active version so the next screening start reads
	// the new pointer.
	cacheKey := fmt.Sprintf(constvars.RedisKeyActiveRulesetFormat, tc.ID(), programID)
	if err := uc.RedisRepository.Delete(ctx, cacheKey); err != nil {
		uc.Log.Warn("programUsecase.ActivateQuestionnaireVersion error invalidating cache",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}

	if err := uc.AuditUsecase.Record(ctx, tc, utils.GetAuditActor(ctx), constvars.AuditActionVersionActivated, constvars.AuditResourceQuestionnaireVersion, versionID, map[string]string{
		"program_id":          programID,
		"previous_version_id": previousVersionID,
	}); err != nil {
		uc.Log.Warn("programUsecase.ActivateQuestionnaireVersion audit record failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	program.ActiveVersionID = versionID
	program.SetUpdatedAt()

	uc.Log.Info("programUsecase.ActivateQuestionnaireVersion succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProgramIDKey, programID),
		zap.String("version_id", versionID),
	)
	response := program.ConvertIntoResponse()
	return &response, nil
}
