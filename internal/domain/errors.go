package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors shared by services and transports.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrConflict        = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
)

// ValidationError reports which input fields were rejected.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError builds a ValidationError. Message falls back to a field summary.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Error pairs a sentinel with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

// NewError returns an error that reads as message and matches kind under errors.Is.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }
