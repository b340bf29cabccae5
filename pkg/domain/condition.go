package domain

import "strings"

// ConditionKind selects how a Condition is tested.
type ConditionKind string

const (
	// ConditionVariable compares a context variable against Value with Operator.
	ConditionVariable ConditionKind = "variable"
	// ConditionScript runs Script in the sandbox.
	ConditionScript ConditionKind = "script"
	// ConditionExists checks that Variable resolves to a non-null value.
	ConditionExists ConditionKind = "exists"
)

// Operator is a declarative comparison.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
	OpInArray            Operator = "in_array"
	OpNotInArray         Operator = "not_in_array"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OpEquals, OpNotEquals,
	OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
	OpContains, OpNotContains, OpStartsWith, OpEndsWith,
	OpIsEmpty, OpIsNotEmpty, OpInArray, OpNotInArray,
}

var operatorAliases = map[string]Operator{
	"==": OpEquals, "eq": OpEquals,
	"!=": OpNotEquals, "ne": OpNotEquals, "notequals": OpNotEquals,
	">": OpGreaterThan, "gt": OpGreaterThan, "greaterthan": OpGreaterThan,
	"<": OpLessThan, "lt": OpLessThan, "lessthan": OpLessThan,
	">=": OpGreaterThanOrEqual, "gte": OpGreaterThanOrEqual, "greaterthanorequal": OpGreaterThanOrEqual,
	"<=": OpLessThanOrEqual, "lte": OpLessThanOrEqual, "lessthanorequal": OpLessThanOrEqual,
	"notcontains":  OpNotContains,
	"startswith":   OpStartsWith,
	"endswith":     OpEndsWith,
	"isempty":      OpIsEmpty,
	"isnotempty":   OpIsNotEmpty,
	"inarray":      OpInArray,
	"notinarray":   OpNotInArray,
}

// NormalizeOperator maps camelCase, kebab-case and symbolic spellings onto
// the canonical operator names. Unknown spellings are returned unchanged.
func NormalizeOperator(raw string) Operator {
	s := strings.TrimSpace(raw)
	for _, op := range Operators {
		if string(op) == s {
			return op
		}
	}
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	if op, ok := operatorAliases[key]; ok {
		return op
	}
	for _, op := range Operators {
		if strings.ReplaceAll(string(op), "_", "") == key {
			return op
		}
	}
	return Operator(s)
}

// Valid reports whether op is a canonical operator.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Condition is a single branch test.
type Condition struct {
	Kind     ConditionKind `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required"`
	Variable string        `json:"variable,omitempty" yaml:"variable,omitempty" mapstructure:"variable" validate:"required_unless=Kind script"`
	Operator Operator      `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator" validate:"required_if=Kind variable"`
	Value    any           `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Script   string        `json:"script,omitempty" yaml:"script,omitempty" mapstructure:"script" validate:"required_if=Kind script"`

	// StartPageIndex is the branch target when the condition holds.
	StartPageIndex *int `json:"start_page_index,omitempty" yaml:"start_page_index,omitempty" mapstructure:"start_page_index"`
}

// When builds a variable comparison.
func When(variable string, op Operator, value any, target *int) Condition {
	return Condition{Kind: ConditionVariable, Variable: variable, Operator: op, Value: value, StartPageIndex: target}
}

// WhenScript builds a script condition.
func WhenScript(script string, target *int) Condition {
	return Condition{Kind: ConditionScript, Script: script, StartPageIndex: target}
}

// WhenExists builds an existence check.
func WhenExists(variable string, target *int) Condition {
	return Condition{Kind: ConditionExists, Variable: variable, StartPageIndex: target}
}
