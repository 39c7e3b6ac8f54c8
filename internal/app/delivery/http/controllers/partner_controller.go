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
	"aegis-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PartnerController struct {
	Log            *zap.Logger
	PartnerUsecase contracts.PartnerUsecase
}

var (
	partnerControllerInstance *PartnerController
	oncePartnerController     sync.Once
)

func NewPartnerController(logger *zap.Logger, partnerUsecase contracts.PartnerUsecase) *PartnerController {
	oncePartnerController.Do(func() {
		instance := &PartnerController{
			Log:            logger,
			PartnerUsecase: partnerUsecase,
		}
		partnerControllerInstance = instance
	})
	return partnerControllerInstance
}

func (ctrl *PartnerController) CreatePartner(w http.ResponseWriter, r *http.Request) {
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

	request := new(requests.CreatePartner)
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

	response, err := ctrl.PartnerUsecase.CreatePartner(ctx, tc, request)
	if err != nil {
		ctrl.Log.Error("Failed to create partner",
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

	utils.LogBusinessEvent(ctrl.Log, "partner_registered", requestID,
		zap.String(constvars.LoggingPartnerIDKey, response.ID),
		zap.String("role", response.Role),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.CreatePartnerSuccessMessage, response)
}

func (ctrl *PartnerController) GetPartners(w http.ResponseWriter, r *http.Request) {
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

	response, total, err := ctrl.PartnerUsecase.GetPartners(ctx, tc, pagination.Page, pagination.PageSize)
	if err != nil {
		ctrl.Log.Error("Failed to fetch partners",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	paginationResponse := utils.BuildPaginationResponse(total, pagination.Page, pagination.PageSize, r.URL.Path)
	utils.BuildSuccessResponseWithPagination(w, constvars.StatusOK, constvars.GetPartnersSuccessMessage, paginationResponse, response)
}

func (ctrl *PartnerController) UpdatePartnerStatus(w http.ResponseWriter, r *http.Request) {
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

	partnerID := chi.URLParam(r, constvars.URLParamPartnerID)
	if err := utils.ValidateUrlParamID(partnerID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamPartnerID))
		return
	}

	request := new(requests.UpdatePartnerStatus)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	utils.SanitizeUpdatePartnerStatusRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.PartnerUsecase.UpdatePartnerStatus(ctx, tc, partnerID, models.PartnerStatus(request.Status))
	if err != nil {
		ctrl.Log.Error("Failed to update partner status",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPartnerIDKey, partnerID),
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

	utils.LogBusinessEvent(ctrl.Log, "partner_status_updated", requestID,
		zap.String(constvars.LoggingPartnerIDKey, partnerID),
		zap.String("status", request.Status),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.UpdatePartnerStatusSuccessMessage, response)
}
