package audits

import (
	"context"
	"errors"
	"sync"

	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type auditUsecase struct {
	AuditRepository contracts.AuditRepository
	Log             *zap.Logger
}

var (
	auditUsecaseInstance contracts.AuditUsecase
	onceAuditUsecase     sync.Once
)

func NewAuditUsecase(
	auditPostgresRepository contracts.AuditRepository,
	logger *zap.Logger,
) contracts.AuditUsecase {
	onceAuditUsecase.Do(func() {
		auditUsecaseInstance = &auditUsecase{
			AuditRepository: auditPostgresRepository,
			Log:             logger,
		}
	})
	return auditUsecaseInstance
}

func (uc *auditUsecase) Record(ctx context.Context, tc tenant.Context, actor, action, resource, resourceID string, detail interface{}) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("auditUsecase.Record called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTenantIDKey, tc.ID()),
		zap.String("action", action),
	)

	if tc.IsZero() {
		return exceptions.ErrTenantMissing(errors.New(constvars.ErrDevTenantMissing))
	}

	detailJSON := ""
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			uc.Log.Error("auditUsecase.Record error marshaling detail",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
			return exceptions.ErrCannotMarshalJSON(err)
		}
		detailJSON = string(raw)
	}

	event := &models.AuditEvent{
		TenantID:   tc.ID(),
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detailJSON,
	}

	if err := uc.AuditRepository.InsertAuditEvent(ctx, event); err != nil {
		uc.Log.Error("auditUsecase.Record error inserting audit event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}
