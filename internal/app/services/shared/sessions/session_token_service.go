// Package sessions mints and verifies the short-lived bearer token a
// respondent carries through one screening. The token is the only place
// the session's tenant binding travels outside the store.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aegis-service/internal/app/config"
	"aegis-service/internal/app/contracts"
	"aegis-service/internal/app/models"
	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/utils"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

type screeningClaims struct {
	SessionID string `json:"session_id"`
	TenantID  string `json:"tenant_id"`
	ProgramID string `json:"program_id"`
	jwt.RegisteredClaims
}

type sessionTokenService struct {
	Log    *zap.Logger
	secret []byte
	ttl    time.Duration
}

func NewSessionTokenService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.SessionTokenService {
	return &sessionTokenService{
		Log:    logger,
		secret: []byte(internalConfig.JWT.Secret),
		ttl:    time.Duration(internalConfig.JWT.ExpTimeInHour) * time.Hour,
	}
}

func (s *sessionTokenService) GenerateScreeningToken(ctx context.Context, session *models.ScreeningSession) (string, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("sessionTokenService.GenerateScreeningToken called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSessionIDKey, session.ID),
	)

	now := time.Now().UTC()
	claims := screeningClaims{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ProgramID: session.ProgramID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", exceptions.ErrTokenGenerate(err)
	}
	return signed, nil
}

func (s *sessionTokenService) ParseScreeningToken(ctx context.Context, token string) (*models.Session, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("sessionTokenService.ParseScreeningToken called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	claims := &screeningClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: %v", constvars.ErrDevAuthSigningMethod, t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, exceptions.ErrTokenInvalidOrExpired(err)
	}
	if !parsed.Valid {
		return nil, exceptions.ErrTokenInvalidOrExpired(errors.New(constvars.ErrDevAuthTokenInvalidOrExpired))
	}
	if claims.SessionID == "" || claims.TenantID == "" {
		return nil, exceptions.ErrTokenInvalidOrExpired(errors.New(constvars.ErrDevAuthInvalidSession))
	}

	session := &models.Session{
		SessionID: claims.SessionID,
		TenantID:  claims.TenantID,
		ProgramID: claims.ProgramID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
