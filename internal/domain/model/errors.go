package model

import "errors"

// Sentinel errors classifying ThoughtService failures. The HTTP adapter maps
// each to a status code with errors.Is.
var (
	// ErrInvalidInput indicates a missing or empty required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrThoughtNotFound indicates the referenced thought does not exist.
	ErrThoughtNotFound = errors.New("thought not found")

	// ErrUnauthorized indicates a wrong password on update.
	ErrUnauthorized = errors.New("invalid password")

	// ErrForbidden indicates a wrong password on delete, or an id/password
	// pair that does not match any thought.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the human-readable reason an input was rejected.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
