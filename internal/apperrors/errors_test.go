package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := NewValidationError("missing_field", "email", "email is required")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidationErrorMessageIncludesField(t *testing.T) {
	err := NewValidationError("missing_field", "email", "email is required")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "missing_field")
}

func TestValidationErrorMessageWithoutField(t *testing.T) {
	err := NewValidationError("bad_body", "", "could not parse body")
	assert.NotContains(t, err.Error(), `field ""`)
	assert.Contains(t, err.Error(), "could not parse body")
}
