package responses

import "time"

type Partner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	APIKeyID  string    `json:"apiKeyId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatedPartner is returned once at provisioning time. APIKey is the
// only place the plaintext secret ever appears; it cannot be recovered
// afterwards.
type CreatedPartner struct {
	Partner
	APIKey string `json:"apiKey"`
}
