package validation

import (
	"testing"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("fixed", "permits", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePositive("fixed", "permits", 0); !gaerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidateRatio(t *testing.T) {
	tests := []struct {
		value float64
		valid bool
	}{
		{0.5, true},
		{0.999, true},
		{0, false},
		{1, false},
		{-0.1, false},
		{1.5, false},
	}

	for _, tt := range tests {
		err := ValidateRatio("aimd", "backoff-ratio", tt.value)
		if tt.valid && err != nil {
			t.Errorf("ValidateRatio(%v): unexpected error %v", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidateRatio(%v): expected error", tt.value)
		}
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange("aimd", "initial-limit", 5, 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateRange("aimd", "initial-limit", 11, 1, 10); !gaerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
