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
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type VerificationCodeController struct {
	Log                     *zap.Logger
	VerificationCodeUsecase contracts.VerificationCodeUsecase
}

var (
	verificationCodeControllerInstance *VerificationCodeController
	onceVerificationCodeController     sync.Once
)

func NewVerificationCodeController(logger *zap.Logger, verificationCodeUsecase contracts.VerificationCodeUsecase) *VerificationCodeController {
	onceVerificationCodeController.Do(func() {
		instance := &VerificationCodeController{
			Log:                     logger,
			VerificationCodeUsecase: verificationCodeUsecase,
		}
		verificationCodeControllerInstance = instance
	})
	return verificationCodeControllerInstance
}

// IssueCode is the consumer-facing issue endpoint, authenticated by the
// screening session token.
func (ctrl *VerificationCodeController) IssueCode(w http.ResponseWriter, r *http.Request) {
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

	tc, ok := tenant.FromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTenantMissing(nil))
		return
	}
	session := utils.GetSessionFromContext(r.Context())
	if session == nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	sessionID := chi.URLParam(r, constvars.URLParamSessionID)
	if err := utils.ValidateUrlParamID(sessionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamSessionID))
		return
	}
	if sessionID != session.SessionID {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrScreeningNotFound(nil))
		return
	}

	request := new(requests.IssueCode)
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

	response, err := ctrl.VerificationCodeUsecase.IssueCode(ctx, tc, sessionID, request)
	if err != nil {
		ctrl.Log.Error("Failed to issue verification code",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSessionIDKey, sessionID),
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

	utils.LogBusinessEvent(ctrl.Log, "verification_code_issued", requestID,
		zap.String(constvars.LoggingSessionIDKey, sessionID),
		zap.String("code", utils.MaskVerificationCode(response.Code)),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.IssueCodeSuccessMessage, response)
}

// RedeemCode is the partner integration surface. Redemption outcomes,
// success or classified failure, are written in the pinned partner shape
// with HTTP 200; non-200 is reserved for auth and malformed requests.
func (ctrl *VerificationCodeController) RedeemCode(w http.ResponseWriter, r *http.Request) {
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

	tc, partner, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.RedeemCode)
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

	response, err := ctrl.VerificationCodeUsecase.RedeemCode(ctx, tc, partner.ID, request)
	if err != nil {
		ctrl.Log.Error("Failed to redeem verification code",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPartnerIDKey, partner.ID),
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

	utils.LogBusinessEvent(ctrl.Log, "verification_code_redeem_attempt", requestID,
		zap.String(constvars.LoggingPartnerIDKey, partner.ID),
		zap.Bool("valid", response.Valid),
		zap.String("reason", response.Error),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildRawJSONResponse(w, constvars.StatusOK, response)
}

// CheckCode validates a code without consuming it; same partner shape as
// redeem.
func (ctrl *VerificationCodeController) CheckCode(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	tc, partner, err := boundPartner(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.CheckCode)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	utils.SanitizeCheckCodeRequest(request)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.VerificationCodeUsecase.CheckCode(ctx, tc, request.Code)
	if err != nil {
		ctrl.Log.Error("Failed to check verification code",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPartnerIDKey, partner.ID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildRawJSONResponse(w, constvars.StatusOK, response)
}
