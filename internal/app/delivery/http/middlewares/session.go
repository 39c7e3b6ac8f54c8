package middlewares

import (
	"net/http"
	"strings"

	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/tenant"
	"aegis-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// SessionAuth authenticates the bearer token minted when a screening
// starts. The token pins the session and its tenant, so the consumer
// surface never names a tenant explicitly after the first call.
func (m *Middlewares) SessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := utils.GetRequestID(r.Context())

		authorization := r.Header.Get(constvars.HeaderAuthorization)
		if authorization == "" || !strings.HasPrefix(authorization, bearerPrefix) {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}
		token := strings.TrimPrefix(authorization, bearerPrefix)

		session, err := m.SessionToken.ParseScreeningToken(r.Context(), token)
		if err != nil {
			utils.LogSecurityEvent(m.Log, "session_token_rejected", requestID, utils.SecuritySeverityLow,
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, err)
			return
		}

		tc, err := tenant.Bind(session.TenantID)
		if err != nil {
			m.Log.Error("Session token carries unusable tenant",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingSessionIDKey, session.SessionID),
				zap.Error(err),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTenantMalformedID(err))
			return
		}

		ctx := tenant.WithContext(r.Context(), tc)
		ctx = utils.WithSession(ctx, session)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantHeader resolves the tenant for the one unauthenticated entry
// point, starting a screening. Respondents have no credential yet; the
// program's public intake page supplies its tenant in X-Tenant-ID and
// everything after this call rides the session token instead.
func (m *Middlewares) TenantHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(constvars.HeaderXTenantID)
		if tenantID == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTenantMissing(nil))
			return
		}

		tc, err := tenant.Bind(tenantID)
		if err != nil {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTenantMalformedID(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithContext(r.Context(), tc)))
	})
}
