// Package conditions evaluates declarative page-flow conditions.
package conditions

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

var (
	// ErrUnknownOperator is returned for operators outside domain.Operators.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrUnknownKind is returned for condition kinds this evaluator does not handle.
	ErrUnknownKind = errors.New("unknown condition kind")
)

// Evaluator tests variable and exists conditions against a vars.Context.
// It holds no per-call state and is safe for concurrent use.
type Evaluator struct {
	strict bool
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStrictEquality switches equals/not_equals from loose to same-kind equality.
func WithStrictEquality(strict bool) Option {
	return func(e *Evaluator) {
		e.strict = strict
	}
}

// WithLogger sets the logger that records failed evaluations.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Evaluator with loose equality.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate tests cond against ctx. Script conditions are not handled here.
func (e *Evaluator) Evaluate(cond domain.Condition, ctx vars.Context) (ok bool, err error) {
	defer func() {
		if err != nil {
			e.logger.Debug("condition evaluation failed",
				"kind", cond.Kind,
				"variable", cond.Variable,
				"operator", cond.Operator,
				"error", err)
		}
	}()

	switch cond.Kind {
	case domain.ConditionExists:
		return ctx.Has(cond.Variable), nil
	case domain.ConditionVariable:
		actual, found := ctx.Lookup(cond.Variable)
		if !found && isRelational(cond.Operator) {
			// An absent variable is undefined, which never orders against anything.
			return false, nil
		}
		return e.Compare(actual, cond.Operator, cond.Value)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, cond.Kind)
	}
}

// Compare applies op to actual and expected.
func (e *Evaluator) Compare(actual any, op domain.Operator, expected any) (bool, error) {
	switch domain.NormalizeOperator(string(op)) {
	case domain.OpEquals:
		return e.equal(actual, expected), nil
	case domain.OpNotEquals:
		return !e.equal(actual, expected), nil
	case domain.OpGreaterThan:
		return numericCompare(actual, expected, func(a, b float64) bool { return a > b }), nil
	case domain.OpLessThan:
		return numericCompare(actual, expected, func(a, b float64) bool { return a < b }), nil
	case domain.OpGreaterThanOrEqual:
		return numericCompare(actual, expected, func(a, b float64) bool { return a >= b }), nil
	case domain.OpLessThanOrEqual:
		return numericCompare(actual, expected, func(a, b float64) bool { return a <= b }), nil
	case domain.OpContains:
		return Contains(actual, expected), nil
	case domain.OpNotContains:
		return !Contains(actual, expected), nil
	case domain.OpStartsWith:
		return StartsWith(actual, expected), nil
	case domain.OpEndsWith:
		return EndsWith(actual, expected), nil
	case domain.OpIsEmpty:
		return IsEmpty(actual), nil
	case domain.OpIsNotEmpty:
		return !IsEmpty(actual), nil
	case domain.OpInArray:
		return inArray(actual, expected), nil
	case domain.OpNotInArray:
		return !inArray(actual, expected), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func (e *Evaluator) equal(a, b any) bool {
	if e.strict {
		return StrictEqual(a, b)
	}
	return LooseEqual(a, b)
}

// numericCompare is false whenever either operand is not a number.
func numericCompare(a, b any, cmp func(float64, float64) bool) bool {
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return cmp(x, y)
}

func isRelational(op domain.Operator) bool {
	switch domain.NormalizeOperator(string(op)) {
	case domain.OpGreaterThan, domain.OpLessThan, domain.OpGreaterThanOrEqual, domain.OpLessThanOrEqual:
		return true
	}
	return false
}

// inArray is false when expected is not an array.
func inArray(actual, expected any) bool {
	items, ok := AsSlice(expected)
	if !ok {
		return false
	}
	for _, item := range items {
		if SameValue(item, actual) {
			return true
		}
	}
	return false
}
