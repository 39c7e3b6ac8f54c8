package models

import "aegis-service/internal/pkg/dto/responses"

type PartnerStatus string

const (
	PartnerEnabled  PartnerStatus = "enabled"
	PartnerDisabled PartnerStatus = "disabled"
)

// Partner is an external credential holder on a tenant: a dispenser
// (pharmacy chain, clinic network) with the partner role, or a program
// operator with the admin role. APIKeyID is the public half of the
// credential and is safe to log; only the bcrypt hash of the secret half
// is stored.
type Partner struct {
	ID         string        `json:"id" bson:"_id,omitempty"`
	TenantID   string        `json:"tenantId" bson:"tenantId"`
	Name       string        `json:"name" bson:"name"`
	APIKeyID   string        `json:"apiKeyId" bson:"apiKeyId"`
	APIKeyHash string        `json:"-" bson:"apiKeyHash"`
	Role       string        `json:"role" bson:"role"`
	Status     PartnerStatus `json:"status" bson:"status"`
	TimeModel  `bson:",inline"`
}

func (m *Partner) ConvertIntoResponse() responses.Partner {
	return responses.Partner{
		ID:        m.ID,
		Name:      m.Name,
		Role:      m.Role,
		Status:    string(m.Status),
		APIKeyID:  m.APIKeyID,
		CreatedAt: m.CreatedAt,
	}
}
