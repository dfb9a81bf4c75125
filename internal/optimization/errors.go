package optimization

import (
	"errors"
	"fmt"
)

// Kind classifies an optimization error.
type Kind int

const (
	// KindUnknown is the zero Kind.
	KindUnknown Kind = iota
	// KindConfig marks a run that was rejected before it started.
	KindConfig
	// KindAllocation marks population storage that could not be created.
	// It aborts the run.
	KindAllocation
	// KindIO marks an output sink that could not be opened or written.
	// The search itself is unaffected.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindAllocation:
		return "allocation error"
	case KindIO:
		return "io error"
	default:
		return "error"
	}
}

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind is the error class.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := e.Kind.String()
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s: %s", prefix, e.Component, e.Op)
	} else if e.Component != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, e.Component)
	} else if e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, e.Op)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new optimization error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsOptimizationError checks if any error in err's chain is of type Error.
// If so, it returns that error and true.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err's chain carries an optimization error of kind.
func IsKind(err error, kind Kind) bool {
	e, ok := IsOptimizationError(err)
	return ok && e.Kind == kind
}
