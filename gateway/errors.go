package gateway

import (
	"errors"
	"fmt"
)

// TransportError is a retryable failure: network error, timeout, or a 5xx
// from the gateway. It surfaces as a failed sync status, never silently
// dropped.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is a malformed request rejected by the gateway. It is
// returned to the initiating action, not stored as sync status.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
}

// NotFoundError means the record or label no longer exists remotely.
// Non-fatal: the local view catches up on the next poll.
type NotFoundError struct {
	Op string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gateway %s: not found", e.Op)
}

// IsRetryable reports whether err is a transient transport failure
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a request validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a stale-reference failure
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
