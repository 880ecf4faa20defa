package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	crederrors "github.com/systmms/credstore/internal/errors"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := crederrors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestUserErrorUnwrap verifies the wrapped cause stays reachable
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := crederrors.UserError{Message: "Operation failed", Err: cause}

	assert.True(t, errors.Is(err, cause))
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := crederrors.ConfigError{
		Field:      "kmsKeyId",
		Value:      "not-a-key",
		Message:    "unknown master key",
		Suggestion: "Use a key id, ARN or alias/name",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "kmsKeyId")
	assert.Contains(t, errMsg, "not-a-key")
	assert.Contains(t, errMsg, "unknown master key")
	assert.Contains(t, errMsg, "alias/name")
}

// TestAWSErrorSuggestions verifies service failures map to actionable hints
func TestAWSErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		service    string
		err        error
		suggestion string
	}{
		{
			name:       "kms access denied",
			service:    "kms",
			err:        fmt.Errorf("AccessDeniedException: not authorized"),
			suggestion: "kms:GenerateDataKey",
		},
		{
			name:       "dynamodb missing table",
			service:    "dynamodb",
			err:        fmt.Errorf("ResourceNotFoundException: no such table"),
			suggestion: "credstore setup",
		},
		{
			name:       "sts expired token",
			service:    "sts",
			err:        fmt.Errorf("ExpiredToken: session expired"),
			suggestion: "Refresh your credentials",
		},
		{
			name:       "missing credentials",
			service:    "dynamodb",
			err:        fmt.Errorf("failed to retrieve credentials"),
			suggestion: "aws configure",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := crederrors.AWSError(tt.service, "SomeOperation", tt.err)
			assert.Contains(t, err.Error(), tt.suggestion)
		})
	}
}
