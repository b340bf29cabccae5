package domain

import "fmt"

// Report is the outcome of validating a page set.
type Report struct {
	// Errors holds structural problems (ConfigurationError) and, when scripts
	// are analyzed, script problems (SecurityError, EvaluationError).
	Errors   []*FlowError `json:"errors,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	// Rejected lists pages whose flow config cannot be used. The engine
	// renders nothing for them and does not follow their targets.
	Rejected    []int `json:"rejected,omitempty"`
	Reachable   []int `json:"reachable"`
	Unreachable []int `json:"unreachable,omitempty"`
}

// Valid reports whether no error was found. Warnings do not count.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// IsRejected reports whether the page at index was rejected.
func (r *Report) IsRejected(index int) bool {
	for _, i := range r.Rejected {
		if i == index {
			return true
		}
	}
	return false
}

// Err returns an *AggregateError with every error, or nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return &AggregateError{Errors: errs}
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
