package responses

import (
	"time"

	"aegis-service/internal/pkg/eligibility"
)

type QuestionnaireVersion struct {
	ID          string                 `json:"id"`
	ProgramID   string                 `json:"programId"`
	Version     int                    `json:"version"`
	Status      string                 `json:"status"`
	Questions   []eligibility.Question `json:"questions"`
	Ruleset     eligibility.Ruleset    `json:"ruleset"`
	PublishedAt *time.Time             `json:"publishedAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
