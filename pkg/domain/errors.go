package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by a SequenceCache when no result is stored for a key.
var ErrCacheMiss = errors.New("cache miss")

// ErrTemplateNotFound is returned by loaders when the template source does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Sentinels matched by FlowError through errors.Is.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrSecurity             = errors.New("security violation")
	ErrEvaluation           = errors.New("evaluation error")
	ErrCircularReference    = errors.New("circular page reference")
	ErrIterationLimit       = errors.New("iteration limit exceeded")
	ErrUnresolvedDataSource = errors.New("unresolved data source")
)

// ErrorKind classifies a FlowError.
type ErrorKind string

const (
	KindConfiguration        ErrorKind = "ConfigurationError"
	KindSecurity             ErrorKind = "SecurityError"
	KindEvaluation           ErrorKind = "EvaluationError"
	KindCircularReference    ErrorKind = "CircularReferenceError"
	KindIterationLimit       ErrorKind = "IterationLimitExceeded"
	KindUnresolvedDataSource ErrorKind = "UnresolvedDataSource"
)

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindSecurity:
		return ErrSecurity
	case KindEvaluation:
		return ErrEvaluation
	case KindCircularReference:
		return ErrCircularReference
	case KindIterationLimit:
		return ErrIterationLimit
	case KindUnresolvedDataSource:
		return ErrUnresolvedDataSource
	}
	return nil
}

// Fatal reports whether the kind stops sequence generation.
func (k ErrorKind) Fatal() bool {
	return k == KindCircularReference || k == KindIterationLimit
}

// FlowError is a recorded, non-panicking failure during validation or generation.
type FlowError struct {
	Kind ErrorKind `json:"kind"`
	// PageIndex is the page being processed, or -1 when not page-specific.
	PageIndex int `json:"page_index"`
	// ConditionIndex is the position of the condition inside its flow, or -1.
	ConditionIndex int    `json:"condition_index"`
	Message        string `json:"message"`
	// Err is the underlying cause. It is serialized as its message only.
	Err error `json:"-"`
}

// cause is the deserialized form of a FlowError cause.
type cause string

func (c cause) Error() string { return string(c) }

type flowErrorJSON struct {
	Kind           ErrorKind `json:"kind"`
	PageIndex      int       `json:"page_index"`
	ConditionIndex int       `json:"condition_index"`
	Message        string    `json:"message"`
	Cause          string    `json:"cause,omitempty"`
}

// MarshalJSON keeps the cause message, so a decoded error prints the same.
func (e *FlowError) MarshalJSON() ([]byte, error) {
	out := flowErrorJSON{
		Kind:           e.Kind,
		PageIndex:      e.PageIndex,
		ConditionIndex: e.ConditionIndex,
		Message:        e.Message,
	}
	if e.Err != nil {
		out.Cause = e.Err.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a FlowError. The cause keeps its message but not its
// identity: errors.Is still matches the kind sentinel, not the original cause.
func (e *FlowError) UnmarshalJSON(data []byte) error {
	var in flowErrorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = FlowError{
		Kind:           in.Kind,
		PageIndex:      in.PageIndex,
		ConditionIndex: in.ConditionIndex,
		Message:        in.Message,
	}
	if in.Cause != "" {
		e.Err = cause(in.Cause)
	}
	return nil
}

// NewFlowError creates a FlowError not tied to a condition.
func NewFlowError(kind ErrorKind, pageIndex int, message string, cause error) *FlowError {
	return &FlowError{
		Kind:           kind,
		PageIndex:      pageIndex,
		ConditionIndex: -1,
		Message:        message,
		Err:            cause,
	}
}

// AtCondition returns a copy of the error attributed to condition i.
func (e *FlowError) AtCondition(i int) *FlowError {
	cp := *e
	cp.ConditionIndex = i
	return &cp
}

func (e *FlowError) Error() string {
	msg := string(e.Kind)
	if e.PageIndex >= 0 {
		msg += fmt.Sprintf(" on page %d", e.PageIndex)
	}
	if e.ConditionIndex >= 0 {
		msg += fmt.Sprintf(" (condition %d)", e.ConditionIndex)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *FlowError) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
