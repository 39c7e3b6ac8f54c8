package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProgramController struct {
	Log            *zap.Logger
	ProgramUsecase contracts.ProgramUsecase
}

var (
	programControllerInstance *ProgramController
	onceProgramController     sync.Once
)

func NewProgramController(logger *zap.Logger, programUsecase contracts.ProgramUsecase) *ProgramController {
	onceProgramController.Do(func() {
		instance := &ProgramController{
			Log:            logger,
			ProgramUsecase: programUsecase,
		}
		programControllerInstance = instance
	})
	return programControllerInstance
}

func (ctrl *ProgramController) CreateProgram(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("Request ID missing from context",
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, _, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.CreateProgram)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ProgramUsecase.CreateProgram(ctx, tc, request)
	if err != nil {
		ctrl.Log.Error("Failed to create program",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "program_created", requestID,
		zap.String(constvars.LoggingProgramIDKey, response.ID),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.CreateProgramSuccessMessage, response)
}

func (ctrl *ProgramController) GetPrograms(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, _, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	pagination := utils.BuildPaginationRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, total, err := ctrl.ProgramUsecase.GetPrograms(ctx, tc, pagination.Page, pagination.PageSize)
	if err != nil {
		ctrl.Log.Error("Failed to fetch programs",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	paginationResponse := utils.BuildPaginationResponse(total, pagination.Page, pagination.PageSize, r.URL.Path)
	utils.BuildSuccessResponseWithPagination(w, constvars.StatusOK, constvars.GetProgramsSuccessMessage, paginationResponse, response)
}

func (ctrl *ProgramController) GetProgramByID(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, _, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	programID := chi.URLParam(r, constvars.URLParamProgramID)
	if err := utils.ValidateUrlParamID(programID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamProgramID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ProgramUsecase.GetProgramByID(ctx, tc, programID)
	if err != nil {
		ctrl.Log.Error("Failed to fetch program",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProgramIDKey, programID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetProgramSuccessMessage, response)
}

func (ctrl *ProgramController) ActivateQuestionnaireVersion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, _, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	programID := chi.URLParam(r, constvars.URLParamProgramID)
	if err := utils.ValidateUrlParamID(programID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamProgramID))
		return
	}

	request := new(requests.ActivateQuestionnaireVersion)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	utils.SanitizeActivateQuestionnaireVersionRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ProgramUsecase.ActivateQuestionnaireVersion(ctx, tc, programID, request.VersionID)
	if err != nil {
		ctrl.Log.Error("Failed to activate questionnaire version",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProgramIDKey, programID),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "questionnaire_version_activated", requestID,
		zap.String(constvars.LoggingProgramIDKey, programID),
		zap.String("version_id", request.VersionID),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ActivateQuestionnaireSuccessMessage, response)
}
