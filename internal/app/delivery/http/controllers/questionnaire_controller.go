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

type QuestionnaireController struct {
	Log                  *zap.Logger
	QuestionnaireUsecase contracts.QuestionnaireUsecase
}

var (
	questionnaireControllerInstance *QuestionnaireController
	onceQuestionnaireController     sync.Once
)

func NewQuestionnaireController(logger *zap.Logger, questionnaireUsecase contracts.QuestionnaireUsecase) *QuestionnaireController {
	onceQuestionnaireController.Do(func() {
		instance := &QuestionnaireController{
			Log:                  logger,
			QuestionnaireUsecase: questionnaireUsecase,
		}
		questionnaireControllerInstance = instance
	})
	return questionnaireControllerInstance
}

func (ctrl *QuestionnaireController) PublishQuestionnaireVersion(w http.ResponseWriter, r *http.Request) {
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

	programID := chi.URLParam(r, constvars.URLParamProgramID)
	if err := utils.ValidateUrlParamID(programID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamProgramID))
		return
	}

	request := new(requests.PublishQuestionnaireVersion)
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

	response, err := ctrl.QuestionnaireUsecase.PublishQuestionnaireVersion(ctx, tc, programID, request)
	if err != nil {
		ctrl.Log.Error("Failed to publish questionnaire version",
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

	utils.LogBusinessEvent(ctrl.Log, "questionnaire_version_published", requestID,
		zap.String(constvars.LoggingProgramIDKey, programID),
		zap.String("version_id", response.ID),
		zap.Int("version", response.Version),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.PublishQuestionnaireSuccessMessage, response)
}

func (ctrl *QuestionnaireController) GetQuestionnaireVersionsByProgram(w http.ResponseWriter, r *http.Request) {
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

	response, err := ctrl.QuestionnaireUsecase.GetQuestionnaireVersionsByProgram(ctx, tc, programID)
	if err != nil {
		ctrl.Log.Error("Failed to fetch questionnaire versions",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProgramIDKey, programID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetQuestionnairesSuccessMessage, response)
}

func (ctrl *QuestionnaireController) GetQuestionnaireVersionByID(w http.ResponseWriter, r *http.Request) {
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

	versionID := chi.URLParam(r, constvars.URLParamVersionID)
	if err := utils.ValidateUrlParamID(versionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamVersionID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.QuestionnaireUsecase.GetQuestionnaireVersionByID(ctx, tc, versionID)
	if err != nil {
		ctrl.Log.Error("Failed to fetch questionnaire version",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("version_id", versionID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetQuestionnaireSuccessMessage, response)
}
