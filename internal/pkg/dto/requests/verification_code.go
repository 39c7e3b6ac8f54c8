package requests

type RedeemCode struct {
	Code          string            `json:"code" validate:"required,verification_code"`
	TransactionID string            `json:"transactionId" validate:"required,min=1,max=120"`
	Metadata      map[string]string `json:"metadata" validate:"omitempty,max=20"`
}

type CheckCode struct {
	Code string `json:"code" validate:"required,verification_code"`
}
