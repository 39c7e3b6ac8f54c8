package eligibility

import "fmt"

// Evaluate validates the answer set and applies the ruleset. The outcome
// ordering is load-bearing and must not be rearranged: ineligible wins over
// eligible, and consult_professional is the fail-safe when neither bucket
// matches.
func Evaluate(questions []Question, rules Ruleset, answers Answers) (Outcome, error) {
	if err := ValidateAnswers(questions, answers); err != nil {
		return "", err
	}

	index := indexQuestions(questions)

	matched, err := bucketMatches(rules.Ineligible, index, answers)
	if err != nil {
		return "", err
	}
	if matched {
		return OutcomeIneligible, nil
	}

	matched, err = bucketMatches(rules.Eligible, index, answers)
	if err != nil {
		return "", err
	}
	if matched {
		return OutcomeEligible, nil
	}

	return OutcomeConsultProfessional, nil
}

// bucketMatches reports whether any group in the bucket has all of its
// conditions true. Empty buckets and empty groups never match.
func bucketMatches(groups []ConditionGroup, index map[string]Question, answers Answers) (bool, error) {
	for _, group := range groups {
		if len(group.All) == 0 {
			continue
		}
		all := true
		for _, condition := range group.All {
			ok, err := conditionTrue(condition, index, answers)
			if err != nil {
				return false, err
			}
			if !ok {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

// conditionTrue evaluates one comparison. An absent answer is always false.
// Rule data that should have been rejected at publish time fails closed
// with a ConfigFaultError instead of defaulting.
func conditionTrue(condition Condition, index map[string]Question, answers Answers) (bool, error) {
	question, ok := index[condition.QuestionID]
	if !ok {
		return false, &ConfigFaultError{Detail: fmt.Sprintf("condition references unknown question %q", condition.QuestionID)}
	}

	value, present := answers[condition.QuestionID]
	if !present {
		return false, nil
	}

	switch question.Type {
	case QuestionBoolean:
		if condition.BoolValue == nil {
			return false, &ConfigFaultError{Detail: fmt.Sprintf("condition on boolean question %q carries no boolean value", question.ID)}
		}
		answer, ok := value.(bool)
		if !ok {
			return false, nil
		}
		return compareEquality(condition.Operator, answer == *condition.BoolValue)

	case QuestionNumeric:
		if condition.NumberValue == nil {
			return false, &ConfigFaultError{Detail: fmt.Sprintf("condition on numeric question %q carries no numeric value", question.ID)}
		}
		answer, ok := parseNumber(value)
		if !ok {
			return false, nil
		}
		return compareNumbers(condition.Operator, answer, *condition.NumberValue)

	case QuestionSingleChoice, QuestionDiagnosticTest:
		if condition.StringValue == nil {
			return false, &ConfigFaultError{Detail: fmt.Sprintf("condition on question %q carries no string value", question.ID)}
		}
		answer, ok := value.(string)
		if !ok {
			return false, nil
		}
		return compareEquality(condition.Operator, answer == *condition.StringValue)

	default:
		return false, &ConfigFaultError{Detail: fmt.Sprintf("question %q has unknown type %q", question.ID, question.Type)}
	}
}

func compareEquality(operator Operator, equal bool) (bool, error) {
	switch operator {
	case OperatorEquals:
		return equal, nil
	case OperatorNotEquals:
		return !equal, nil
	default:
		return false, &ConfigFaultError{Detail: fmt.Sprintf("operator %q is not valid for equality comparison", operator)}
	}
}

func compareNumbers(operator Operator, answer, target float64) (bool, error) {
	switch operator {
	case OperatorEquals:
		return answer == target, nil
	case OperatorNotEquals:
		return answer != target, nil
	case OperatorGreaterThan:
		return answer > target, nil
	case OperatorLessThan:
		return answer < target, nil
	case OperatorGreaterThanOrEqual:
		return answer >= target, nil
	case OperatorLessThanOrEqual:
		return answer <= target, nil
	default:
		return false, &ConfigFaultError{Detail: fmt.Sprintf("unknown operator %q", operator)}
	}
}
