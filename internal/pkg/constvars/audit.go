package constvars

const (
	AuditActionProgramCreated       = "program.created"
	AuditActionVersionPublished     = "questionnaire_version.published"
	AuditActionVersionActivated     = "questionnaire_version.activated"
	AuditActionScreeningCompleted   = "screening.completed"
	AuditActionCodeIssued           = "verification_code.issued"
	AuditActionCodeRedeemed         = "verification_code.redeemed"
	AuditActionCodesExpired         = "verification_code.expired_sweep"
	AuditActionPartnerCreated       = "partner.created"
	AuditActionPartnerStatusChanged = "partner.status_changed"
)

const (
	AuditResourceProgram              = "program"
	AuditResourceQuestionnaireVersion = "questionnaire_version"
	AuditResourceScreeningSession     = "screening_session"
	AuditResourceVerificationCode     = "verification_code"
	AuditResourcePartner              = "partner"
)

const (
	AuditActorSystemSweeper = "system:sweeper"
)
