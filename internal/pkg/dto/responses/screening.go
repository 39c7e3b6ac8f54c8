package responses

import "time"

// CreateScreening is the consumer entry payload. SessionToken is the
// bearer credential for the follow-up answer and code calls.
type CreateScreening struct {
	SessionID    string `json:"sessionId"`
	ProgramID    string `json:"programId"`
	VersionID    string `json:"versionId"`
	Status       string `json:"status"`
	SessionToken string `json:"sessionToken"`
}

type ScreeningResult struct {
	SessionID   string    `json:"sessionId"`
	Outcome     string    `json:"outcome"`
	CompletedAt time.Time `json:"completedAt"`
}

type ScreeningSession struct {
	ID          string     `json:"id"`
	ProgramID   string     `json:"programId"`
	VersionID   string     `json:"versionId"`
	Status      string     `json:"status"`
	Outcome     string     `json:"outcome,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
