package models

import (
	"time"

	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/eligibility"
)

type ScreeningStatus string

const (
	ScreeningStarted   ScreeningStatus = "started"
	ScreeningCompleted ScreeningStatus = "completed"
)

// ScreeningSession records one respondent's pass through a questionnaire
// version. The status moves started -> completed exactly once; answers and
// outcome are only ever written by that transition.
type ScreeningSession struct {
	ID          string              `json:"id" bson:"_id,omitempty"`
	TenantID    string              `json:"tenantId" bson:"tenantId"`
	ProgramID   string              `json:"programId" bson:"programId"`
	VersionID   string              `json:"versionId" bson:"versionId"`
	Status      ScreeningStatus     `json:"status" bson:"status"`
	Answers     eligibility.Answers `json:"answers,omitempty" bson:"answers,omitempty"`
	Outcome     eligibility.Outcome `json:"outcome,omitempty" bson:"outcome,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	TimeModel   `bson:",inline"`
}

func (m *ScreeningSession) ConvertIntoResponse() responses.ScreeningSession {
	return responses.ScreeningSession{
		ID:          m.ID,
		ProgramID:   m.ProgramID,
		VersionID:   m.VersionID,
		Status:      string(m.Status),
		Outcome:     string(m.Outcome),
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// IsEligibleForCode reports whether this session can back a verification
// code: completed with the eligible outcome.
func (m *ScreeningSession) IsEligibleForCode() bool {
	return m.Status == ScreeningCompleted && m.Outcome == eligibility.OutcomeEligible
}
