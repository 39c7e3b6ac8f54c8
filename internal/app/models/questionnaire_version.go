package models

import (
	"time"

	"aegis-service/internal/pkg/dto/responses"
	"aegis-service/internal/pkg/eligibility"
)

type QuestionnaireVersionStatus string

const (
	VersionPublished QuestionnaireVersionStatus = "published"
	VersionRetired   QuestionnaireVersionStatus = "retired"
)

// QuestionnaireVersion is an immutable snapshot of questions plus ruleset.
// Once published, neither field changes again; corrections ship as a new
// version so completed screenings stay attributable to the exact rules
// they ran under.
type QuestionnaireVersion struct {
	ID          string                     `json:"id" bson:"_id,omitempty"`
	TenantID    string                     `json:"tenantId" bson:"tenantId"`
	ProgramID   string                     `json:"programId" bson:"programId"`
	Version     int                        `json:"version" bson:"version"`
	Status      QuestionnaireVersionStatus `json:"status" bson:"status"`
	Questions   []eligibility.Question     `json:"questions" bson:"questions"`
	Ruleset     eligibility.Ruleset        `json:"ruleset" bson:"ruleset"`
	PublishedAt *time.Time                 `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	RetiredAt   *time.Time                 `json:"retiredAt,omitempty" bson:"retiredAt,omitempty"`
	TimeModel   `bson:",inline"`
}

func (m *QuestionnaireVersion) ConvertIntoResponse() responses.QuestionnaireVersion {
	return responses.QuestionnaireVersion{
		ID:          m.ID,
		ProgramID:   m.ProgramID,
		Version:     m.Version,
		Status:      string(m.Status),
		Questions:   m.Questions,
		Ruleset:     m.Ruleset,
		PublishedAt: m.PublishedAt,
		CreatedAt:   m.CreatedAt,
	}
}
