package controllers

import (
	"net/http"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"
)

// boundPartner returns the tenant and partner the API-key middleware
// attached. Both come from the stored partner record, never from client
// input.
func boundPartner(r *http.Request) (tenant.Context, *models.Partner, error) {
	tc, ok := tenant.FromContext(r.Context())
	if !ok {
		return tenant.Context{}, nil, exceptions.ErrTenantMissing(nil)
	}
	partner := utils.GetPartnerFromContext(r.Context())
	if partner == nil {
		return tenant.Context{}, nil, exceptions.ErrInvalidAPIKey(nil)
	}
	return tc, partner, nil
}
