package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScreeningController struct {
	Log              *zap.Logger
	ScreeningUsecase contracts.ScreeningUsecase
}

var (
	screeningControllerInstance *ScreeningController
	onceScreeningController     sync.Once
)

func NewScreeningController(logger *zap.Logger, screeningUsecase contracts.ScreeningUsecase) *ScreeningController {
	onceScreeningController.Do(func() {
		instance := &ScreeningController{
			Log:              logger,
			ScreeningUsecase: screeningUsecase,
		}
		screeningControllerInstance = instance
	})
	return screeningControllerInstance
}

// CreateScreeningSession is the public entry: no bearer yet, the tenant
// arrives bound by the tenant-header middleware.
func (ctrl *ScreeningController) CreateScreeningSession(w http.ResponseWriter, r *http.Request) {
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

	ctrl.Log.Debug("Screening session creation started",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEndpointKey, r.URL.Path),
	)

	tc, ok := tenant.FromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTenantMissing(nil))
		return
	}

	programID := chi.URLParam(r, constvars.URLParamProgramID)
	if err := utils.ValidateUrlParamID(programID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamProgramID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ScreeningUsecase.CreateScreeningSession(ctx, tc, programID)
	if err != nil {
		ctrl.Log.Error("Failed to create screening session",
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

	utils.LogBusinessEvent(ctrl.Log, "screening_started", requestID,
		zap.String(constvars.LoggingProgramIDKey, programID),
		zap.String(constvars.LoggingSessionIDKey, response.SessionID),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.StartScreeningSuccessMessage, response)
}

func (ctrl *ScreeningController) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
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

	tc, session, err := ctrl.boundSession(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.SubmitAnswers)
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

	response, err := ctrl.ScreeningUsecase.SubmitAnswers(ctx, tc, session.SessionID, request)
	if err != nil {
		ctrl.Log.Error("Failed to submit answers",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, session.SessionID),
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

	utils.LogBusinessEvent(ctrl.Log, "screening_completed", requestID,
		zap.String(constvars.LoggingSessionIDKey, response.SessionID),
		zap.String(constvars.LoggingOutcomeKey, response.Outcome),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubmitAnswersSuccessMessage, response)
}

func (ctrl *ScreeningController) GetScreeningSession(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, session, err := ctrl.boundSession(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ScreeningUsecase.GetScreeningSessionByID(ctx, tc, session.SessionID)
	if err != nil {
		ctrl.Log.Error("Failed to fetch screening session",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, session.SessionID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetScreeningSuccessMessage, response)
}

// boundSession resolves the tenant and session the bearer token carries
// and checks them against the URL. A mismatched session id reads as not
// found so the URL leaks nothing about other sessions.
func (ctrl *ScreeningController) boundSession(r *http.Request) (tenant.Context, *models.Session, error) {
	tc, ok := tenant.FromContext(r.Context())
	if !ok {
		return tenant.Context{}, nil, exceptions.ErrTenantMissing(nil)
	}

	session := utils.GetSessionFromContext(r.Context())
	if session == nil {
		return tenant.Context{}, nil, exceptions.ErrTokenMissing(nil)
	}

	sessionID := chi.URLParam(r, constvars.URLParamSessionID)
	if err := utils.ValidateUrlParamID(sessionID); err != nil {
		return tenant.Context{}, nil, exceptions.ErrURLParamIDValidation(err, constvars.URLParamSessionID)
	}
	if sessionID != session.SessionID {
		return tenant.Context{}, nil, exceptions.ErrScreeningNotFound(nil)
	}

	return tc, session, nil
}
