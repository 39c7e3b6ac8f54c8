package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LegacyRule is one entry of the retired ordered-rule ruleset form: a
// free-text boolean expression that was evaluated against answers at
// runtime, with the outcome awarded to the first matching rule.
type LegacyRule struct {
	Expression string  `json:"expression"`
	Outcome    Outcome `json:"outcome"`
	Message    string  `json:"message,omitempty"`
}

// MigrateLegacyRules converts an ordered-rule ruleset into the canonical
// bucket form at publish time. The expression strings are parsed exactly
// once here; nothing downstream ever evaluates a string.
//
// Two legacy shapes cannot be represented and are rejected rather than
// silently altered: a rule whose outcome is the consult_professional
// default (redundant under bucket semantics, but order-sensitive in the
// old form), and a default outcome other than consult_professional (the
// fail-safe default is fixed).
func MigrateLegacyRules(legacy []LegacyRule, defaultOutcome Outcome, questions []Question) (Ruleset, error) {
	var rules Ruleset
	var issues []RulesetIssue

	if defaultOutcome != "" && defaultOutcome != OutcomeConsultProfessional {
		issues = append(issues, RulesetIssue{
			Path:   "default_outcome",
			Reason: fmt.Sprintf("legacy default %q cannot be migrated, the default outcome is always %s", defaultOutcome, OutcomeConsultProfessional),
		})
	}

	for i, rule := range legacy {
		path := fmt.Sprintf("legacy[%d]", i)

		switch rule.Outcome {
		case OutcomeEligible, OutcomeIneligible:
		case OutcomeConsultProfessional:
			issues = append(issues, RulesetIssue{Path: path, Reason: "rule targets the default outcome, remove it instead of migrating"})
			continue
		default:
			issues = append(issues, RulesetIssue{Path: path, Reason: fmt.Sprintf("unknown outcome %q", rule.Outcome)})
			continue
		}

		groups, err := ParseLegacyExpression(rule.Expression)
		if err != nil {
			issues = append(issues, RulesetIssue{Path: path, Reason: err.Error()})
			continue
		}

		if rule.Outcome == OutcomeIneligible {
			rules.Ineligible = append(rules.Ineligible, groups...)
		} else {
			rules.Eligible = append(rules.Eligible, groups...)
		}
	}

	if len(issues) > 0 {
		return Ruleset{}, &RulesetValidationError{Issues: issues}
	}

	if err := ValidateRuleset(questions, rules); err != nil {
		return Ruleset{}, err
	}
	return rules, nil
}

// ParseLegacyExpression parses one boolean expression of the legacy form
// into condition groups. The grammar is deliberately closed: comparisons of
// the shape `question op literal` joined by && and ||, with && binding
// tighter. Negation, parentheses and nested expressions are rejected.
func ParseLegacyExpression(expression string) ([]ConditionGroup, error) {
	tokens, err := scanLegacyTokens(expression)
	if err != nil {
		return nil, err
	}

	parser := &legacyParser{expression: expression, tokens: tokens}
	groups, err := parser.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if token := parser.peek(); token.kind != legacyTokenEOF {
		return nil, &LegacyParseError{Expression: expression, Position: token.pos, Reason: fmt.Sprintf("unexpected %q", token.text)}
	}
	return groups, nil
}

type legacyTokenKind int

const (
	legacyTokenEOF legacyTokenKind = iota
	legacyTokenIdent
	legacyTokenNumber
	legacyTokenString
	legacyTokenBool
	legacyTokenOperator
	legacyTokenAnd
	legacyTokenOr
)

type legacyToken struct {
	kind legacyTokenKind
	text string
	pos  int
}

func scanLegacyTokens(expression string) ([]legacyToken, error) {
	var tokens []legacyToken
	runes := []rune(expression)
	i := 0

	fail := func(pos int, reason string) error {
		return &LegacyParseError{Expression: expression, Position: pos, Reason: reason}
	}

	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++

		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			word := string(runes[start:i])
			if word == "true" || word == "false" {
				tokens = append(tokens, legacyToken{kind: legacyTokenBool, text: word, pos: start})
			} else {
				tokens = append(tokens, legacyToken{kind: legacyTokenIdent, text: word, pos: start})
			}

		case unicode.IsDigit(c):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenNumber, text: string(runes[start:i]), pos: start})

		case c == '\'' || c == '"':
			quote := c
			start := i
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' {
					return nil, fail(i, "escape sequences are not supported")
				}
				i++
			}
			if i >= len(runes) {
				return nil, fail(start, "unterminated string literal")
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenString, text: string(runes[start+1 : i]), pos: start})
			i++

		case c == '&':
			if i+1 >= len(runes) || runes[i+1] != '&' {
				return nil, fail(i, "expected &&")
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenAnd, text: "&&", pos: i})
			i += 2

		case c == '|':
			if i+1 >= len(runes) || runes[i+1] != '|' {
				return nil, fail(i, "expected ||")
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenOr, text: "||", pos: i})
			i += 2

		case c == '=':
			start := i
			for i < len(runes) && runes[i] == '=' {
				i++
			}
			repeat := i - start
			if repeat != 2 && repeat != 3 {
				return nil, fail(start, "expected == or ===")
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenOperator, text: "==", pos: start})

		case c == '!':
			start := i
			i++
			for i < len(runes) && runes[i] == '=' {
				i++
			}
			repeat := i - start - 1
			if repeat != 1 && repeat != 2 {
				return nil, fail(start, "negation is not supported, use != against a literal")
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenOperator, text: "!=", pos: start})

		case c == '<' || c == '>':
			start := i
			i++
			operator := string(c)
			if i < len(runes) && runes[i] == '=' {
				operator += "="
				i++
			}
			tokens = append(tokens, legacyToken{kind: legacyTokenOperator, text: operator, pos: start})

		case c == '(' || c == ')':
			return nil, fail(i, "parenthesized expressions are not supported")

		default:
			return nil, fail(i, fmt.Sprintf("unexpected character %q", string(c)))
		}
	}

	tokens = append(tokens, legacyToken{kind: legacyTokenEOF, pos: len(runes)})
	return tokens, nil
}

type legacyParser struct {
	expression string
	tokens     []legacyToken
	cursor     int
}

func (p *legacyParser) peek() legacyToken {
	return p.tokens[p.cursor]
}

func (p *legacyParser) next() legacyToken {
	token := p.tokens[p.cursor]
	if token.kind != legacyTokenEOF {
		p.cursor++
	}
	return token
}

func (p *legacyParser) fail(token legacyToken, reason string) error {
	return &LegacyParseError{Expression: p.expression, Position: token.pos, Reason: reason}
}

func (p *legacyParser) parseDisjunction() ([]ConditionGroup, error) {
	var groups []ConditionGroup
	for {
		group, err := p.parseConjunction()
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)

		if p.peek().kind != legacyTokenOr {
			return groups, nil
		}
		p.next()
	}
}

func (p *legacyParser) parseConjunction() (ConditionGroup, error) {
	var group ConditionGroup
	for {
		condition, err := p.parseComparison()
		if err != nil {
			return ConditionGroup{}, err
		}
		group.All = append(group.All, condition)

		if p.peek().kind != legacyTokenAnd {
			return group, nil
		}
		p.next()
	}
}

func (p *legacyParser) parseComparison() (Condition, error) {
	ident := p.next()
	if ident.kind != legacyTokenIdent {
		return Condition{}, p.fail(ident, "expected a question id")
	}

	operatorToken := p.next()
	if operatorToken.kind != legacyTokenOperator {
		return Condition{}, p.fail(operatorToken, "expected a comparison operator")
	}
	operator, ok := legacyOperators[operatorToken.text]
	if !ok {
		return Condition{}, p.fail(operatorToken, fmt.Sprintf("unknown operator %q", operatorToken.text))
	}

	condition := Condition{QuestionID: ident.text, Operator: operator}

	literal := p.next()
	switch literal.kind {
	case legacyTokenBool:
		value := literal.text == "true"
		condition.BoolValue = &value
	case legacyTokenNumber:
		number, err := strconv.ParseFloat(literal.text, 64)
		if err != nil {
			return Condition{}, p.fail(literal, fmt.Sprintf("malformed number %q", literal.text))
		}
		condition.NumberValue = &number
	case legacyTokenString:
		value := literal.text
		condition.StringValue = &value
	case legacyTokenIdent:
		return Condition{}, p.fail(literal, "comparisons between two questions are not supported")
	default:
		return Condition{}, p.fail(literal, "expected a literal value")
	}

	return condition, nil
}

var legacyOperators = map[string]Operator{
	"==": OperatorEquals,
	"!=": OperatorNotEquals,
	"<":  OperatorLessThan,
	">":  OperatorGreaterThan,
	"<=": OperatorLessThanOrEqual,
	">=": OperatorGreaterThanOrEqual,
}

// DescribeLegacyRules renders a short human summary used by publish
// responses when a migration happened, e.g. "migrated 3 legacy rules".
func DescribeLegacyRules(legacy []LegacyRule) string {
	if len(legacy) == 0 {
		return ""
	}
	outcomes := make([]string, 0, len(legacy))
	for _, rule := range legacy {
		outcomes = append(outcomes, string(rule.Outcome))
	}
	return fmt.Sprintf("migrated %d legacy rules (%s)", len(legacy), strings.Join(outcomes, ", "))
}
