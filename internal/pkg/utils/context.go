package utils

import (
	"context"
	"fmt"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
)

func WithPartner(ctx context.Context, partner *models.Partner) context.Context {
	return context.WithValue(ctx, constvars.CONTEXT_PARTNER_KEY, partner)
}

func GetPartnerFromContext(ctx context.Context) *models.Partner {
	partner, _ := ctx.Value(constvars.CONTEXT_PARTNER_KEY).(*models.Partner)
	return partner
}

func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, constvars.CONTEXT_SESSION_DATA_KEY, session)
}

func GetSessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(constvars.CONTEXT_SESSION_DATA_KEY).(*models.Session)
	return session
}

// GetAuditActor names whoever is acting in this request for the audit
// trail: an authenticated partner, a screening session holder, or
// anonymous for the public entry point.
func GetAuditActor(ctx context.Context) string {
	if partner := GetPartnerFromContext(ctx); partner != nil {
		return fmt.Sprintf("partner:%s", partner.ID)
	}
	if session := GetSessionFromContext(ctx); session != nil {
		return fmt.Sprintf("session:%s", session.SessionID)
	}
	return "anonymous"
}
