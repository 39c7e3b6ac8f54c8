package requests

import "aegis-service/internal/pkg/eligibility"

// PublishQuestionnaireVersion carries either the canonical bucket ruleset
// or a legacy ordered-rule set to migrate, never both. Structural checks
// beyond tags (bucket contents, rule grammar, question references) run in
// the eligibility package at publish time.
type PublishQuestionnaireVersion struct {
	Questions            []eligibility.Question   `json:"questions" validate:"required,min=1,dive"`
	Ruleset              *eligibility.Ruleset     `json:"ruleset,omitempty"`
	LegacyRules          []eligibility.LegacyRule `json:"legacyRules,omitempty"`
	LegacyDefaultOutcome string                   `json:"legacyDefaultOutcome,omitempty" validate:"omitempty,outcome"`
}
