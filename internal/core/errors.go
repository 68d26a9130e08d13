package core

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidAmount rejects unparseable money strings.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrForbidden marks attempts to mutate protected records: locked
	// categories and linked transactions.
	ErrForbidden = errors.New("record is protected")

	// ErrNotFound marks lookups of unknown identifiers.
	ErrNotFound = errors.New("record not found")
)

// ValidationError aggregates the human-readable messages of a rejected
// mutation. It is user-correctable and surfaced inline at the boundary;
// it never partially applies.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
