package models

import "time"

// Session is the decoded form of a screening session token. The token is
// minted when a screening starts and authenticates the follow-up consumer
// calls; it carries identifiers only, never answers or outcomes.
type Session struct {
	SessionID string
	TenantID  string
	ProgramID string
	ExpiresAt time.Time
}
