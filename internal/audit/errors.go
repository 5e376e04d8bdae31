package audit

import (
	"errors"
	"fmt"
)

// ErrNoRowReturned signals the defensive check on the audit insert: the
// store reported success but returned no row. The guard cannot tell a
// silently dropped write from a store error, so both roll back.
var ErrNoRowReturned = errors.New("audit insert returned no row")

// OperationError marks a failure of the business operation itself. The
// transaction was rolled back; the original error is preserved for the
// caller to inspect with errors.Is/As.
type OperationError struct {
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed, transaction rolled back: %v", e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// AuditError marks a failure to create the audit record. The transaction,
// including the business mutation, was rolled back.
type AuditError struct {
	Err error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit record creation failed, transaction rolled back: %v", e.Err)
}

func (e *AuditError) Unwrap() error { return e.Err }

// AcquireError marks a failure to obtain a pooled connection. Nothing was
// started, so nothing had to be rolled back.
type AcquireError struct {
	Err error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("failed to acquire database connection: %v", e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// CommitError marks a commit that the store refused or lost. The guard
// rolled back; neither the mutation nor the audit record was persisted.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit guarded transaction: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsOperationError reports whether err is classified as a business
// operation failure.
func IsOperationError(err error) bool {
	var target *OperationError
	return errors.As(err, &target)
}

// IsAuditError reports whether err is classified as an audit failure.
func IsAuditError(err error) bool {
	var target *AuditError
	return errors.As(err, &target)
}

// IsAcquireError reports whether err is classified as a connection
// acquisition failure.
func IsAcquireError(err error) bool {
	var target *AcquireError
	return errors.As(err, &target)
}

// IsCommitError reports whether err is classified as a commit failure.
func IsCommitError(err error) bool {
	var target *CommitError
	return errors.As(err, &target)
}
