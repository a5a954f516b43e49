package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "uuid", Message: "missing stable identifier"}
	if !strings.Contains(err.Error(), "uuid") {
		t.Errorf("Error() = %q, want field name included", err.Error())
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Error("ValidationError should unwrap to ErrValidationFailed")
	}
}
