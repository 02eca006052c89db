// Package validation provides common validation utilities for the goadmit library.
package validation

import (
	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gaerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return gaerrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateRatio validates that a float64 value is strictly between 0 and 1.
// Returns a ValidationError if the value is outside the open interval.
func ValidateRatio(module, field string, value float64) error {
	if value <= 0 || value >= 1 {
		return gaerrors.NewValidationError(module, field, value, "must be between 0 and 1 exclusive").
			WithHint("use a value like 0.9")
	}
	return nil
}

// ValidateRange validates that value lies within [low, high].
// Returns a ValidationError if the value is out of range.
func ValidateRange(module, field string, value, low, high int) error {
	if value < low || value > high {
		return gaerrors.NewValidationError(module, field, value, "out of range").
			WithHint("value must lie within the configured bounds")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gaerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
