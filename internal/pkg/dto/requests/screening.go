package requests

type SubmitAnswers struct {
	Answers map[string]interface{} `json:"answers" validate:"required,min=1"`
}

type IssueCode struct {
	CodeType string `json:"codeType" validate:"required,oneof=copay_card voucher"`
	// ExpiresInHours distinguishes absent from zero: nil takes the
	// configured default, an explicit 0 issues an already-expired code.
	ExpiresInHours *int `json:"expiresInHours" validate:"omitempty,min=0,max=8760"`
}
