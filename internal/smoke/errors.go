package smoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/loykin/apismoke/internal/envelope"
)

// ErrorKind classifies why a step failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindInput covers local problems such as a missing image file.
	KindInput
	// KindConnectivity covers refused connections, DNS failures and timeouts.
	KindConnectivity
	// KindTransport is an HTTP status other than 200.
	KindTransport
	// KindBusiness is an envelope code other than the success sentinel.
	KindBusiness
	// KindMalformed is a body that is not JSON or does not match its schema.
	KindMalformed
	KindMissingField
	// KindMismatch is a read-after-write check that returned a different value.
	KindMismatch
	KindAuth
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConnectivity:
		return "connectivity"
	case KindTransport:
		return "transport"
	case KindBusiness:
		return "business"
	case KindMalformed:
		return "malformed"
	case KindMissingField:
		return "missing_field"
	case KindMismatch:
		return "mismatch"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// StepError is the error every failed step reports.
type StepError struct {
	Kind ErrorKind
	Step string
	Err  error
}

func (e *StepError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewStepError builds a StepError; a nil err is replaced with a generic one.
func NewStepError(kind ErrorKind, step string, err error) *StepError {
	if err == nil {
		err = errors.New(kind.String() + " failure")
	}
	return &StepError{Kind: kind, Step: step, Err: err}
}

// Errorf is shorthand for NewStepError with a formatted cause.
func Errorf(kind ErrorKind, step, format string, args ...any) *StepError {
	return NewStepError(kind, step, fmt.Errorf(format, args...))
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// StatusError is an HTTP status other than 200.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Classify wraps err in a StepError, deriving the kind from well-known causes.
// Errors that already are StepErrors are returned unchanged.
func Classify(step string, err error) *StepError {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return se
	}
	var (
		codeErr    *envelope.CodeError
		missingErr *envelope.MissingFieldError
		statusErr  *StatusError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewStepError(KindConnectivity, step, err)
	case errors.Is(err, envelope.ErrMalformed), errors.Is(err, envelope.ErrSchemaMismatch):
		return NewStepError(KindMalformed, step, err)
	case errors.As(err, &codeErr):
		return NewStepError(KindBusiness, step, err)
	case errors.As(err, &missingErr):
		return NewStepError(KindMissingField, step, err)
	case errors.As(err, &statusErr):
		return NewStepError(KindTransport, step, err)
	default:
		return NewStepError(KindUnknown, step, err)
	}
}

// Warning is returned by a step that completed with a non-fatal observation.
type Warning struct {
	Msg string
}

func (w *Warning) Error() string { return w.Msg }

// Warnf returns a *Warning; the runner records the step as warned and continues.
func Warnf(format string, args ...any) error {
	return &Warning{Msg: fmt.Sprintf(format, args...)}
}
