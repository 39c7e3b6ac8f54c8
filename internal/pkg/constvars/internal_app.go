package constvars

type ContextKey string

const (
	ResourcePrograms          = "programs"
	ResourceQuestionnaires    = "questionnaires"
	ResourceScreenings        = "screenings"
	ResourceVerificationCodes = "verification-codes"
	ResourcePartners          = "partners"
)

const (
	AppPaginationUrlFormat = "%s?page=%d&page_size=%d"
)

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_SESSION_DATA_KEY         ContextKey = "session_data"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_TENANT_KEY               ContextKey = "tenant"
	CONTEXT_PARTNER_KEY              ContextKey = "partner"
)

const (
	REQUEST_ID_PREFIX = "AEGIS_SVC_"
)

const (
	AegisRoleAdmin   = "admin"
	AegisRolePartner = "partner"
)
