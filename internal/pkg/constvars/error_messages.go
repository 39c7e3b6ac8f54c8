package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required":          "is required",
	"email":             "must be a valid email",
	"alphanum":          "must contain only alphanumeric characters",
	"min":               "must be at least %s characters long",
	"max":               "maximum at %s characters long",
	"numeric":           "must be a number",
	"len":               "must be %s characters long",
	"oneof":             "must be one of [%s]",
	"gt":                "must be greater than %s",
	"gte":               "must be greater than or equal to %s",
	"lt":                "must be less than %s",
	"lte":               "must be less than or equal to %s",
	"url":               "must be a valid URL",
	"uuid":              "must be a valid UUID",
	"uuid4":             "must be a valid UUID",
	"required_if":       "is required when %s is %s",
	"required_with":     "is required when %s is present",
	"required_without":  "is required when %s is not present",
	"question_type":     "must be one of 'boolean', 'numeric', 'single_choice' or 'diagnostic_test'",
	"outcome":           "must be one of 'eligible', 'consult_professional' or 'ineligible'",
	"verification_code": "must match the issued code format",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":              true,
	"max":              true,
	"len":              true,
	"gt":               true,
	"gte":              true,
	"lt":               true,
	"lte":              true,
	"oneof":            true,
	"required_if":      true,
	"required_with":    true,
	"required_without": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientNotLoggedIn                   = "your session ended, please start again"
	ErrClientInvalidAPIKey                 = "invalid API key"
	ErrClientUnknownTenant                 = "unknown or malformed tenant identifier"
	ErrClientProgramNotFound               = "program not found"
	ErrClientQuestionnaireVersionNotFound  = "questionnaire version not found"
	ErrClientVersionNotPublished           = "only a published questionnaire version can be activated"
	ErrClientRulesetAndLegacyBothSet       = "provide either a ruleset or legacy rules, not both"
	ErrClientRulesetMissing                = "a ruleset or legacy rules are required"
	ErrClientNoActiveQuestionnaire         = "program has no active questionnaire version"
	ErrClientScreeningNotFound             = "screening session not found"
	ErrClientScreeningAlreadyCompleted     = "screening session already completed"
	ErrClientScreeningNotEligible          = "screening outcome does not qualify for a verification code"
	ErrClientAnswersIncomplete             = "one or more required questions are missing an answer"
	ErrClientCodeNotFound                  = "verification code not found"
	ErrClientCodeAlreadyUsed               = "verification code already used"
	ErrClientCodeExpired                   = "verification code expired"
	ErrClientCodeIssueFailed               = "could not issue a verification code, please retry"
	ErrClientCodeAlreadyIssued             = "a verification code was already issued for this screening"
	ErrClientTooManyRequests               = "too many requests, please slow down"
)

// Error messages for developers
const (
	ErrDevInvalidInput      = "invalid input"
	ErrDevCannotParseJSON   = "cannot parse JSON into struct or other data types"
	ErrDevCannotParseTime   = "cannot parse time into the given format"
	ErrDevCannotMarshalJSON = "cannot convert struct or other data types to JSON"
	ErrDevInvalidFormat     = "invalid %s format"
	ErrDevBuildRequest      = "encountering error while building request DTO"
	ErrDevDocumentNotFound  = "document not found"
	ErrDevUnauthorized      = "unauthorized access"
	ErrDevCreateHTTPRequest = "failed to create HTTP request"
	ErrDevSendHTTPRequest   = "failed to send HTTP request"

	// Tenant messages
	ErrDevTenantMissing      = "request context carries no tenant binding"
	ErrDevTenantMalformedID  = "tenant identifier is not a canonical UUID"
	ErrDevTenantUnknown      = "tenant identifier does not resolve to a registered tenant"
	ErrDevTenantScopeInvalid = "operation attempted outside the bound tenant scope"

	// Ruleset messages
	ErrDevRulesetInvalid           = "ruleset failed publish-time validation"
	ErrDevRulesetUnknownQuestion   = "rule references a question absent from the questionnaire"
	ErrDevRulesetTypeMismatch      = "rule operator is incompatible with the question type"
	ErrDevRulesetNoActiveVersion   = "program has no active questionnaire version"
	ErrDevRulesetLegacyParseFailed = "legacy rule expression could not be migrated"
	ErrDevRulesetConfigFault       = "ruleset configuration fault reached evaluation"

	// Screening messages
	ErrDevScreeningNotFound         = "screening session not found"
	ErrDevScreeningAlreadyCompleted = "screening session is already completed"
	ErrDevScreeningAnswersMissing   = "required questions are missing answers"
	ErrDevScreeningNotEligible      = "screening outcome is not eligible"
	ErrDevScreeningNotCompleted     = "screening session has not been completed"

	// Verification code messages
	ErrDevCodeNotFound            = "verification code not found"
	ErrDevCodeAlreadyUsed         = "verification code was already redeemed"
	ErrDevCodeExpired             = "verification code expired before redemption"
	ErrDevCodeGenerationExhausted = "could not generate a unique code within the attempt budget"
	ErrDevCodeRedeemRaceClassify  = "redeem failed but the code could not be classified"
	ErrDevCodeAlreadyIssued       = "screening session already has a verification code"

	// Partner messages
	ErrDevPartnerNotFound      = "partner not found"
	ErrDevPartnerKeyMismatch   = "partner API key does not match stored hash"
	ErrDevPartnerDisabled      = "partner account is disabled"
	ErrDevPartnerAdminRequired = "admin role required for this operation"
	ErrDevAPIKeyMissing        = "request carries no API key header"

	// Validation messages
	ErrDevValidationFailed           = "validation failed"
	ErrDevInvalidRequestPayload      = "invalid request payload"
	ErrDevMissingRequiredFields      = "missing required fields"
	ErrDevURLParamIDValidationFailed = "parameter %s validation failed"

	// Authentication messages
	ErrDevAuthSigningMethod         = "unexpected signing method"
	ErrDevAuthTokenInvalidOrExpired = "invalid or expired token"
	ErrDevAuthTokenExpired          = "token expired"
	ErrDevAuthTokenMissing          = "token missing"
	ErrDevAuthInvalidSession        = "invalid session"
	ErrDevAuthPermissionDenied      = "permission denied"
	ErrDevAuthGenerateToken         = "failed to generate token"

	// Database messages
	ErrDevDBFailedToInsertDocument   = "failed to insert document into database"
	ErrDevDBFailedToUpdateDocument   = "failed to update document into database"
	ErrDevDBFailedToFindDocument     = "failed when do find document on database"
	ErrDevDBFailedToDeleteDocument   = "failed when do delete document on database"
	ErrDevDBFailedToIterateDocuments = "failed when iterating documents from database"
	ErrDevDBFailedToInsertData       = "failed to insert data into database"
	ErrDevDBFailedToUpdateData       = "failed to update data into database"
	ErrDevDBFailedToFindData         = "failed when do find data on database"
	ErrDevDBFailedToDeleteData       = "failed when do delete data on database"
	ErrDevDBFailedToIterateDataset   = "failed when iterating dataset from database"
	ErrDevDBConnectionFailed         = "failed to connect to database"
	ErrDevDBOperationFailed          = "database operation failed"
	ErrDevDBStringNotObjectID        = "given ID is not valid object ID"

	// RabbitMQ messages
	ErrDevRabbitMQPublishMessage = "failed to publish message into rabbitmq queue %s"

	// Minio messages
	ErrDevMinioFailedToCreateObject          = "failed to create object into minio storage with bucket name '%s'"
	ErrDevMinioFailedToGetObjectPresignedURL = "failed to get object URL from minio storage with bucket name '%s'"

	// Redis messages
	ErrDevRedisSetData    = "failed to SET data into redis"
	ErrDevRedisGetData    = "failed to GET data from redis"
	ErrDevRedisGetNoData  = "failed to GET data from redis, there is no data associated with key %s"
	ErrDevRedisDeleteData = "failed to DELETE data from redis"
	ErrDevRedisIncrement  = "failed to INCR counter in redis"
	ErrDevRedisUnlock     = "failed to release redis lock"

	// Server messages
	ErrDevServerProcess          = "server failed to process something related to machine system"
	ErrDevServerInternalError    = "internal server error"
	ErrDevServerNotImplemented   = "feature not implemented"
	ErrDevServerBadRequest       = "bad request"
	ErrDevServerNotFound         = "resource not found"
	ErrDevServerDeadlineExceeded = "deadline exceeded"
	ErrDevServerParseSessionData = "failed to parse session data"

	// Miscellaneous messages
	ErrDevActionNotAllowed      = "action not allowed"
	ErrDevServiceUnavailable    = "service temporarily unavailable"
	ErrDevOperationTimedOut     = "operation timed out"
	ErrDevRequestLimitExceeded  = "request limit exceeded"
	ErrDevMissingRequestID      = "request ID missing from context"
)

const (
	ErrFileLocationUnknown = "file location unknown"
	ErrLineLocationUnknown = "line location unknown"
	ErrFunctionNameUnknown = "function name unknown"
)

const (
	ErrEnvParsing     = "Error parsing %s: %v, will use default value"
	ErrEnvKeyNotExist = "Error getting env key: %s, will use default value"
)
