package middlewares

import (
	"net/http"
	"strconv"

	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// APIKeyAuth authenticates a partner credential from the X-API-Key header
// and binds the partner's tenant onto the request context. Every request
// past this middleware carries a verified tenant; handlers never trust a
// tenant identifier supplied by the client.
func (m *Middlewares) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := utils.GetRequestID(r.Context())

		apiKey := r.Header.Get(constvars.HeaderXAPIKey)
		if apiKey == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}

		partner, err := m.PartnerUsecase.AuthenticateAPIKey(r.Context(), apiKey)
		if err != nil {
			utils.LogSecurityEvent(m.Log, "api_key_auth_failed", requestID, utils.SecuritySeverityMedium,
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, err)
			return
		}

		tc, err := tenant.Bind(partner.TenantID)
		if err != nil {
			m.Log.Error("Partner record carries unusable tenant",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingPartnerIDKey, partner.ID),
				zap.Error(err),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTenantMalformedID(err))
			return
		}

		if m.PartnerQuota != nil {
			result, err := m.PartnerQuota.Allow(r.Context(), partner.ID)
			if err != nil {
				m.Log.Warn("Partner quota check unavailable, allowing request",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingPartnerIDKey, partner.ID),
					zap.Error(err),
				)
			} else if !result.Allowed {
				w.Header().Set(constvars.HeaderRetryAfter, strconv.Itoa(result.RetryAfterSecs))
				utils.BuildErrorResponse(m.Log, w, exceptions.ErrTooManyRequests(nil))
				return
			}
		}

		ctx := tenant.WithContext(r.Context(), tc)
		ctx = utils.WithPartner(ctx, partner)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminRole gates program and partner administration. It must run
// after APIKeyAuth.
func (m *Middlewares) RequireAdminRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		partner := utils.GetPartnerFromContext(r.Context())
		if partner == nil {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}

		if partner.Role != constvars.AegisRoleAdmin {
			utils.LogSecurityEvent(m.Log, "admin_role_denied", utils.GetRequestID(r.Context()), utils.SecuritySeverityMedium,
				zap.String(constvars.LoggingPartnerIDKey, partner.ID),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrPartnerAdminRequired(nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
