package errors

import (
	"errors"
	"fmt"
)

// ValidationError describes a configuration value that failed validation
// at construction time. Limits fail fast: a misconfigured limiter is never
// built partially.
type ValidationError struct {
	Module  string
	Field   string
	Value   interface{}
	Message string
	Hint    string
}

// NewValidationError creates a validation error for the given module and field.
func NewValidationError(module, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Module:  module,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// WithHint attaches a short usage hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Unwrap makes every validation error match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidation returns true if the error is a configuration validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
