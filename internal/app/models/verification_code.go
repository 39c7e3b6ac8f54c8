package models

import (
	"time"

	"aegis-service/internal/pkg/dto/responses"
)

type VerificationCodeStatus string

const (
	CodeUnused  VerificationCodeStatus = "unused"
	CodeUsed    VerificationCodeStatus = "used"
	CodeExpired VerificationCodeStatus = "expired"
)

// VerificationCode is the single-use proof of an eligible screening.
// Redemption happens as one conditional update on status, so RedeemedBy
// and TransactionID are set in the same write that flips the status to
// used. A code past ExpiresAt may briefly still read "unused" until the
// sweeper relabels it; redemption checks the timestamp, never the label.
type VerificationCode struct {
	ID            string                 `json:"id" bson:"_id,omitempty"`
	TenantID      string                 `json:"tenantId" bson:"tenantId"`
	ProgramID     string                 `json:"programId" bson:"programId"`
	SessionID     string                 `json:"sessionId" bson:"sessionId"`
	Code          string                 `json:"code" bson:"code"`
	Type          string                 `json:"type" bson:"type"`
	Status        VerificationCodeStatus `json:"status" bson:"status"`
	ExpiresAt     time.Time              `json:"expiresAt" bson:"expiresAt"`
	UsedAt        *time.Time             `json:"usedAt,omitempty" bson:"usedAt,omitempty"`
	RedeemedBy    string                 `json:"redeemedBy,omitempty" bson:"redeemedBy,omitempty"`
	TransactionID string                 `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	TimeModel     `bson:",inline"`
}

func (m *VerificationCode) ConvertIntoResponse() responses.VerificationCode {
	return responses.VerificationCode{
		Code:      m.Code,
		Type:      m.Type,
		ExpiresAt: m.ExpiresAt,
		Status:    string(m.Status),
	}
}

func (m *VerificationCode) ConvertIntoRedeemedCode() *responses.RedeemedCode {
	return &responses.RedeemedCode{
		Code:      m.Code,
		Type:      m.Type,
		Status:    string(m.Status),
		ExpiresAt: m.ExpiresAt,
		UsedAt:    m.UsedAt,
	}
}
