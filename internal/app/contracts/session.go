package contracts

import (
	"context"

	"aegis-service/internal/app/models"
)

// SessionTokenService mints and verifies the bearer token a respondent
// holds for the lifetime of one screening.
type SessionTokenService interface {
	GenerateScreeningToken(ctx context.Context, session *models.ScreeningSession) (string, error)
	ParseScreeningToken(ctx context.Context, token string) (*models.Session, error)
}
