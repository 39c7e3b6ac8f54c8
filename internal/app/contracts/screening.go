package contracts

import (
	"context"
	"time"

	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/dto/requests"
	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/eligibility"
	"aegis-service/internal/pkg/tenant"
)

type ScreeningUsecase interface {
	CreateScreeningSession(ctx context.Context, tc tenant.Context, programID string) (*responses.CreateScreening, error)
	SubmitAnswers(ctx context.Context, tc tenant.Context, sessionID string, request *requests.SubmitAnswers) (*responses.ScreeningResult, error)
	GetScreeningSessionByID(ctx context.Context, tc tenant.Context, sessionID string) (*responses.ScreeningSession, error)
}

type ScreeningSessionRepository interface {
	CreateScreeningSession(ctx context.Context, tc tenant.Context, session *models.ScreeningSession) (sessionID string, err error)
	FindByID(ctx context.Context, tc tenant.Context, sessionID string) (*models.ScreeningSession, error)
	// CompleteSession flips started -> completed with a conditional update.
	// matched reports whether a started session was actually transitioned;
	// false means the session was missing or already completed and the
	// caller decides which by re-reading.
	CompleteSession(ctx context.Context, tc tenant.Context, sessionID string, answers eligibility.Answers, outcome eligibility.Outcome, completedAt time.Time) (matched bool, err error)
}
