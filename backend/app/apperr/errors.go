// Package apperr holds the error kinds the backend surfaces to callers.
// Storage faults are mapped to one of these at the service boundary.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any storage access.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced command or device that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a storage fault; the operation left no partial state.
	ErrPersistence = errors.New("persistence error")
)

// Validation wraps ErrValidation with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and identity that was looked up.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

// Persistence wraps ErrPersistence around the storage cause.
func Persistence(op string, cause error) error {
	return &persistenceError{op: op, cause: cause}
}

type persistenceError struct {
	op    string
	cause error
}

func (e *persistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.op, e.cause)
}

func (e *persistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *persistenceError) Unwrap() error { return e.cause }

// DeserializationError reports a stored payload that could not be decoded.
// It is attached to a single claimed command and never fails a batch.
type DeserializationError struct {
	CommandID uint
	Err       error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("command %d: payload not decodable: %v", e.CommandID, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
