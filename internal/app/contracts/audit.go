package contracts

import (
	"context"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/tenant"
)

type AuditUsecase interface {
	// Record appends one audit event. Callers treat failures as
	// log-and-continue: the audited operation has already happened and
	// must not be rolled back by a reporting fault.
	Record(ctx context.Context, tc tenant.Context, actor, action, resource, resourceID string, detail interface{}) error
}

type AuditRepository interface {
	InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error
	FindByTenantID(ctx context.Context, tc tenant.Context, limit int) ([]models.AuditEvent, error)
}
