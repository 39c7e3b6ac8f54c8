package constvars

const (
	URLParamProgramID = "program_id"
	URLParamSessionID = "session_id"
	URLParamVersionID = "version_id"
	URLParamPartnerID = "partner_id"
)

const (
	URLQueryParamPage     = "page"
	URLQueryParamPageSize = "page_size"
	URLQueryParamStatus   = "status"
	URLQueryParamOutcome  = "outcome"
)
