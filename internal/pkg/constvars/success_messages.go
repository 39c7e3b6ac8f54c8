package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Program messages
	CreateProgramSuccessMessage = "program created successfully"
	GetProgramSuccessMessage    = "get program successfully"
	GetProgramsSuccessMessage   = "get programs successfully"

	// Questionnaire messages
	PublishQuestionnaireSuccessMessage  = "questionnaire version published successfully"
	ActivateQuestionnaireSuccessMessage = "questionnaire version activated successfully"
	GetQuestionnaireSuccessMessage      = "get questionnaire version successfully"
	GetQuestionnairesSuccessMessage     = "get questionnaire versions successfully"

	// Screening messages
	StartScreeningSuccessMessage = "screening session started successfully"
	SubmitAnswersSuccessMessage  = "answers submitted successfully"
	GetScreeningSuccessMessage   = "get screening session successfully"

	// Verification code messages
	IssueCodeSuccessMessage  = "verification code issued successfully"
	RedeemCodeSuccessMessage = "verification code redeemed successfully"
	CheckCodeSuccessMessage  = "verification code checked successfully"

	// Partner messages
	CreatePartnerSuccessMessage       = "partner registered successfully"
	GetPartnersSuccessMessage         = "get partners successfully"
	UpdatePartnerStatusSuccessMessage = "partner status updated successfully"
)
