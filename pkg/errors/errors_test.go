package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		code string
	}{
		{"book unavailable is a validation error", WrapBookUnavailable("b1"), ErrValidation, ErrCodeBookUnavailable},
		{"invalid state", WrapInvalidState("l1", "ACTIVE", "activate"), ErrInvalidState, ErrCodeInvalidState},
		{"loan not found", WrapLoanNotFound("l1"), ErrNotFound, ErrCodeLoanNotFound},
		{"sanction missing is a dependency error", WrapSanctionNotFound("late"), ErrDependencyUnavailable, ErrCodeSanctionNotFound},
		{"malformed response", WrapMalformedResponse("backoffice", "bad id"), ErrMalformedResponse, ErrCodeMalformedResponse},
		{"database", WrapDatabaseError(errors.New("conn reset")), ErrPersistence, ErrCodeDatabaseError},
		{"unknown event type", WrapUnknownEventType("FOO"), ErrValidation, ErrCodeUnknownEventType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestMalformedResponseIsAlsoDependencyUnavailable(t *testing.T) {
	err := WrapMalformedResponse("backoffice", "missing nombre")
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestWrapDatabaseErrorKeepsBusinessErrors(t *testing.T) {
	original := WrapLoanNotFound("l1")
	wrapped := WrapDatabaseError(fmt.Errorf("tx: %w", original))

	assert.Same(t, original, wrapped)
	assert.Equal(t, ErrCodeLoanNotFound, Code(wrapped))
}

func TestWrapDatabaseErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDatabaseError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
}
