package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for the API error envelope. Kinds are
// assigned at the point of failure and never reconstructed from message text.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "InvalidInput"
	KindNoVarietiesAvailable ErrorKind = "NoVarietiesAvailable"
	KindDataCollectionFailed ErrorKind = "DataCollectionFailed"
	KindModelUnavailable     ErrorKind = "ModelUnavailable"
	KindRequestTimeout       ErrorKind = "RequestTimeout"
	KindInternalError        ErrorKind = "InternalError"
)

// PredictionError wraps an operation, a client-safe message, and the
// underlying cause. Msg must never contain file paths, credentials, or
// internal identifiers; the wrapped error is for server-side logs only.
type PredictionError struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *PredictionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// NewPredictionError constructs a typed error for the given taxonomy kind.
func NewPredictionError(kind ErrorKind, op, msg string, err error) error {
	return &PredictionError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// InvalidInput builds an InvalidInput error with a caller-facing message.
func InvalidInput(op, msg string) error {
	return &PredictionError{Kind: KindInvalidInput, Op: op, Msg: msg}
}

// KindOf extracts the taxonomy kind from err, defaulting to InternalError for
// untyped failures so nothing internal leaks to the client.
func KindOf(err error) ErrorKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternalError
}

// ClientMessage returns the redacted message safe to surface to callers.
func ClientMessage(err error) string {
	var pe *PredictionError
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return "an unexpected error occurred"
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
