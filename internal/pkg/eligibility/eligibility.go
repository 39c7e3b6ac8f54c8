// Package eligibility implements the decision pipeline that turns a
// patient's questionnaire answers into a regulated outcome. Evaluation is a
// pure function over an immutable questionnaire definition: no I/O, no
// clock, no randomness. Rulesets are validated when a questionnaire version
// is published, so a malformed ruleset can never be discovered during a
// live evaluation.
package eligibility

// Outcome is the result of evaluating one answer set.
type Outcome string

const (
	OutcomeEligible            Outcome = "eligible"
	OutcomeConsultProfessional Outcome = "consult_professional"
	OutcomeIneligible          Outcome = "ineligible"
)

// ValidOutcome reports whether s is one of the three regulated outcomes.
func ValidOutcome(s string) bool {
	switch Outcome(s) {
	case OutcomeEligible, OutcomeConsultProfessional, OutcomeIneligible:
		return true
	}
	return false
}

// QuestionType enumerates the supported answer kinds.
type QuestionType string

const (
	QuestionBoolean        QuestionType = "boolean"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionNumeric        QuestionType = "numeric"
	QuestionDiagnosticTest QuestionType = "diagnostic_test"
)

// Operator enumerates the comparison operators a condition may use.
// Ordering operators apply to numeric questions only.
type Operator string

const (
	OperatorEquals             Operator = "equals"
	OperatorNotEquals          Operator = "not_equals"
	OperatorGreaterThan        Operator = "greater_than"
	OperatorLessThan           Operator = "less_than"
	OperatorGreaterThanOrEqual Operator = "greater_than_or_equal"
	OperatorLessThanOrEqual    Operator = "less_than_or_equal"
)

// Question is one entry of a questionnaire version. Immutable once the
// version is published.
type Question struct {
	ID       string       `json:"id" bson:"id"`
	Text     string       `json:"text" bson:"text"`
	Type     QuestionType `json:"type" bson:"type"`
	Required bool         `json:"required" bson:"required"`
	// Options constrains single_choice answers, and diagnostic_test answers
	// when non-empty.
	Options []string `json:"options,omitempty" bson:"options,omitempty"`
	// Min and Max bound numeric answers when present.
	Min *float64 `json:"min,omitempty" bson:"min,omitempty"`
	Max *float64 `json:"max,omitempty" bson:"max,omitempty"`
	// ExternalHint names an upstream data source a diagnostic_test answer
	// may be prefilled from. Informational only.
	ExternalHint string `json:"external_hint,omitempty" bson:"externalHint,omitempty"`
}

// Condition is one typed comparison against a single question's answer.
// Exactly one of BoolValue, NumberValue and StringValue is set, matching
// the question's type. ValidateRuleset enforces this at publish time.
type Condition struct {
	QuestionID  string   `json:"question_id" bson:"questionId"`
	Operator    Operator `json:"operator" bson:"operator"`
	BoolValue   *bool    `json:"bool_value,omitempty" bson:"boolValue,omitempty"`
	NumberValue *float64 `json:"number_value,omitempty" bson:"numberValue,omitempty"`
	StringValue *string  `json:"string_value,omitempty" bson:"stringValue,omitempty"`
}

// ConditionGroup is a conjunction: it matches when every condition in All
// is true. A group with no conditions never matches.
type ConditionGroup struct {
	All []Condition `json:"all" bson:"all"`
}

// Ruleset holds the outcome buckets. A bucket is a disjunction of
// conjunction groups, so hand-authored single-conjunction buckets and
// migrated legacy expressions share one representation. An empty bucket
// never matches. There is no bucket for consult_professional: it is the
// fail-safe default, not a rule target.
type Ruleset struct {
	Ineligible []ConditionGroup `json:"ineligible" bson:"ineligible"`
	Eligible   []ConditionGroup `json:"eligible" bson:"eligible"`
}

// Answers maps question id to the submitted answer value. Values arrive as
// decoded JSON: bool for boolean questions, string for single_choice and
// diagnostic_test, and any numeric JSON encoding for numeric questions.
type Answers map[string]interface{}
