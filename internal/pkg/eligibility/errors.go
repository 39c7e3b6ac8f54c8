package eligibility

import (
	"fmt"
	"strings"
)

// AnswerIssue names one question whose answer failed validation.
type AnswerIssue struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// AnswerValidationError reports every failing question from one submission
// so the caller can fix the whole set in a single retry.
type AnswerValidationError struct {
	Issues []AnswerIssue
}

func (e *AnswerValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "answer validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.QuestionID, issue.Reason)
	}
	return "answer validation failed: " + strings.Join(parts, "; ")
}

// RulesetIssue names one defect found during publish-time validation.
type RulesetIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RulesetValidationError is a configuration error. It blocks publishing and
// must never surface from a live evaluation.
type RulesetValidationError struct {
	Issues []RulesetIssue
}

func (e *RulesetValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "ruleset validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.Path, issue.Reason)
	}
	return "ruleset validation failed: " + strings.Join(parts, "; ")
}

// ConfigFaultError is raised when evaluation meets rule data that should
// have been rejected at publish time. Evaluation fails closed: the caller
// gets an error, never a defaulted outcome.
type ConfigFaultError struct {
	Detail string
}

func (e *ConfigFaultError) Error() string {
	return "ruleset configuration fault: " + e.Detail
}

// LegacyParseError reports why a legacy expression string could not be
// migrated into the typed condition form.
type LegacyParseError struct {
	Expression string
	Position   int
	Reason     string
}

func (e *LegacyParseError) Error() string {
	return fmt.Sprintf("cannot migrate legacy rule %q at offset %d: %s", e.Expression, e.Position, e.Reason)
}
