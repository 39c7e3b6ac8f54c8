package constvars

const (
	MongoCollectionPrograms              = "programs"
	MongoCollectionQuestionnaireVersions = "questionnaire_versions"
	MongoCollectionScreeningSessions     = "screening_sessions"
	MongoCollectionVerificationCodes     = "verification_codes"
	MongoCollectionPartners              = "partners"
)

const (
	MongoIndexUniqueTenantCode  = "uniq_tenant_code"
	MongoIndexUniqueSessionCode = "uniq_session_code"
)

const (
	PostgresTableAuditEvents = "audit_events"
)

const (
	RedisKeyActiveRulesetFormat = "aegis:ruleset:%s:%s"
	RedisKeyPartnerFormat       = "aegis:partner:%s"
	RedisKeySweeperLock         = "aegis:lock:code-sweeper"
	RedisKeyArchiveWorkerLock   = "aegis:lock:outcome-archive"
	RedisKeyPartnerQuotaGroup   = "aegis:quota:partner"
)
