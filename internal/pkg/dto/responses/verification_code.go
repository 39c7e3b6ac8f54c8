package responses

import "time"

type VerificationCode struct {
	Code      string    `json:"code"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expiresAt"`
	Status    string    `json:"status"`
}

// CodeRedemption is the partner-facing payload for redeem and check. It
// is written to the wire exactly as declared here, outside the internal
// envelope, because partner integrations pin this shape.
type CodeRedemption struct {
	Valid   bool             `json:"valid"`
	Code    *RedeemedCode    `json:"code,omitempty"`
	Session *RedeemedSession `json:"session,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type RedeemedCode struct {
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

type RedeemedSession struct {
	Outcome     string     `json:"outcome"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

const (
	CodeRedemptionErrorNotFound    = "not_found"
	CodeRedemptionErrorAlreadyUsed = "already_used"
	CodeRedemptionErrorExpired     = "expired"
)
