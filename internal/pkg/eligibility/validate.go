package eligibility

import (
	"fmt"
	"sort"
	"strconv"
)

// ValidateQuestions checks the structural constraints a question list must
// satisfy before a version can be published.
func ValidateQuestions(questions []Question) error {
	var issues []RulesetIssue
	seen := make(map[string]bool, len(questions))
	for i, question := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		if question.ID == "" {
			issues = append(issues, RulesetIssue{Path: path, Reason: "question id is empty"})
			continue
		}
		if seen[question.ID] {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("duplicate question id %q", question.ID)})
		}
		seen[question.ID] = true

		switch question.Type {
		case QuestionBoolean, QuestionSingleChoice, QuestionNumeric, QuestionDiagnosticTest:
		default:
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("unknown question type %q", question.Type)})
			continue
		}

		if question.Type == QuestionSingleChoice && len(question.Options) == 0 {
			issues = append(issues, RulesetIssue{Path: path, Reason: "single_choice question declares no options"})
		}
		if question.Type != QuestionNumeric && (question.Min != nil || question.Max != nil) {
			issues = append(issues, RulesetIssue{Path: path, Reason: "numeric bounds on a non-numeric question"})
		}
		if question.Min != nil && question.Max != nil && *question.Min > *question.Max {
			issues = append(issues, RulesetIssue{Path: path, Reason: "min bound exceeds max bound"})
		}
	}
	if len(issues) > 0 {
		return &RulesetValidationError{Issues: issues}
	}
	return nil
}

// ValidateRuleset checks every condition against the question list. It runs
// at publish time so evaluation never meets a dangling reference, an
// unknown operator or a value of the wrong type.
func ValidateRuleset(questions []Question, rules Ruleset) error {
	index := indexQuestions(questions)
	var issues []RulesetIssue
	issues = append(issues, validateBucket("ineligible", rules.Ineligible, index)...)
	issues = append(issues, validateBucket("eligible", rules.Eligible, index)...)
	if len(issues) > 0 {
		return &RulesetValidationError{Issues: issues}
	}
	return nil
}

func validateBucket(name string, groups []ConditionGroup, index map[string]Question) []RulesetIssue {
	var issues []RulesetIssue
	for g, group := range groups {
		groupPath := fmt.Sprintf("%s[%d]", name, g)
		if len(group.All) == 0 {
			issues = append(issues, RulesetIssue{Path: groupPath, Reason: "condition group is empty"})
			continue
		}
		for c, condition := range group.All {
			path := fmt.Sprintf("%s.all[%d]", groupPath, c)
			issues = append(issues, validateCondition(path, condition, index)...)
		}
	}
	return issues
}

func validateCondition(path string, condition Condition, index map[string]Question) []RulesetIssue {
	var issues []RulesetIssue

	question, ok := index[condition.QuestionID]
	if !ok {
		return append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("references unknown question %q", condition.QuestionID)})
	}

	switch condition.Operator {
	case OperatorEquals, OperatorNotEquals:
	case OperatorGreaterThan, OperatorLessThan, OperatorGreaterThanOrEqual, OperatorLessThanOrEqual:
		if question.Type != QuestionNumeric {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("operator %q requires a numeric question, %q is %s", condition.Operator, question.ID, question.Type)})
		}
	default:
		return append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("unknown operator %q", condition.Operator)})
	}

	setCount := 0
	if condition.BoolValue != nil {
		setCount++
	}
	if condition.NumberValue != nil {
		setCount++
	}
	if condition.StringValue != nil {
		setCount++
	}
	if setCount != 1 {
		return append(issues, RulesetIssue{Path: path, Reason: "condition must carry exactly one typed value"})
	}

	switch question.Type {
	case QuestionBoolean:
		if condition.BoolValue == nil {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("question %q is boolean, condition value is not", question.ID)})
		}
	case QuestionNumeric:
		if condition.NumberValue == nil {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("question %q is numeric, condition value is not", question.ID)})
		}
	case QuestionSingleChoice:
		if condition.StringValue == nil {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("question %q is single_choice, condition value is not a string", question.ID)})
		} else if !containsString(question.Options, *condition.StringValue) {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("value %q is not an option of question %q", *condition.StringValue, question.ID)})
		}
	case QuestionDiagnosticTest:
		if condition.StringValue == nil {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("question %q is diagnostic_test, condition value is not a string", question.ID)})
		} else if len(question.Options) > 0 && !containsString(question.Options, *condition.StringValue) {
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("value %q is not a declared result of question %q", *condition.StringValue, question.ID)})
		}
	}

	return issues
}

// ValidateAnswers checks one submission against the question constraints.
// Every failing question is reported, so the caller can correct the whole
// set in one retry.
func ValidateAnswers(questions []Question, answers Answers) error {
	index := indexQuestions(questions)
	var issues []AnswerIssue

	for _, question := range questions {
		value, present := answers[question.ID]
		if !present {
			if question.Required {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: "required question has no answer"})
			}
			continue
		}

		switch question.Type {
		case QuestionBoolean:
			if _, ok := value.(bool); !ok {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: "boolean answer must be true or false"})
			}
		case QuestionNumeric:
			number, ok := parseNumber(value)
			if !ok {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: "numeric answer does not parse"})
				continue
			}
			if question.Min != nil && number < *question.Min {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: fmt.Sprintf("answer %v is below the minimum %v", number, *question.Min)})
			}
			if question.Max != nil && number > *question.Max {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: fmt.Sprintf("answer %v is above the maximum %v", number, *question.Max)})
			}
		case QuestionSingleChoice:
			answer, ok := value.(string)
			if !ok {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: "single_choice answer must be a string"})
				continue
			}
			if !containsString(question.Options, answer) {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: fmt.Sprintf("answer %q is not one of the declared options", answer)})
			}
		case QuestionDiagnosticTest:
			answer, ok := value.(string)
			if !ok {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: "diagnostic_test answer must be a string"})
				continue
			}
			if len(question.Options) > 0 && !containsString(question.Options, answer) {
				issues = append(issues, AnswerIssue{QuestionID: question.ID, Reason: fmt.Sprintf("answer %q is not a declared result value", answer)})
			}
		}
	}

	var unknown []string
	for id := range answers {
		if _, ok := index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		issues = append(issues, AnswerIssue{QuestionID: id, Reason: "answer references an unknown question"})
	}

	if len(issues) > 0 {
		return &AnswerValidationError{Issues: issues}
	}
	return nil
}

func indexQuestions(questions []Question) map[string]Question {
	index := make(map[string]Question, len(questions))
	for _, question := range questions {
		index[question.ID] = question
	}
	return index
}

func containsString(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func parseNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		number, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}
