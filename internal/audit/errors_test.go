package audit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsAreDistinguishable(t *testing.T) {
	cause := errors.New("boom")

	opErr := &OperationError{Err: cause}
	auditErr := &AuditError{Err: cause}
	acquireErr := &AcquireError{Err: cause}
	commitErr := &CommitError{Err: cause}

	assert.True(t, IsOperationError(opErr))
	assert.False(t, IsOperationError(auditErr))
	assert.False(t, IsOperationError(acquireErr))

	assert.True(t, IsAuditError(auditErr))
	assert.False(t, IsAuditError(opErr))

	assert.True(t, IsAcquireError(acquireErr))
	assert.False(t, IsAcquireError(opErr))

	assert.True(t, IsCommitError(commitErr))
	assert.False(t, IsCommitError(opErr))
	assert.False(t, IsAuditError(commitErr))
}

func TestErrorKindsUnwrapTheCause(t *testing.T) {
	cause := errors.New("unique constraint violated")

	for _, err := range []error{
		&OperationError{Err: cause},
		&AuditError{Err: cause},
		&AcquireError{Err: cause},
		&CommitError{Err: cause},
	} {
		assert.ErrorIs(t, err, cause)
	}
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", &AuditError{Err: ErrNoRowReturned})

	assert.True(t, IsAuditError(wrapped))
	assert.ErrorIs(t, wrapped, ErrNoRowReturned)
}
