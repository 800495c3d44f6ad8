// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input provided")
	ErrInvalidAmount     = errors.New("amount must be a positive number of minor units")
	ErrAmountTooLarge    = errors.New("amount exceeds the allowed maximum")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEntry    = errors.New("duplicate entry") // e.g. creating a user with an existing username
	ErrStore             = errors.New("store failure")
)

// businessErrors are rejections caused by the request itself, never by the infrastructure.
var businessErrors = []error{
	ErrInvalidInput,
	ErrInvalidAmount,
	ErrAmountTooLarge,
	ErrSelfTransfer,
	ErrRecipientNotFound,
	ErrInsufficientFunds,
	ErrUserNotFound,
	ErrDuplicateEntry,
}

// StoreError wraps a failure of the underlying store.
// Transient is set for lock timeouts, deadlocks, serialization failures and lost connections;
// such operations may be retried by the caller.
type StoreError struct {
	Op        string
	Err       error
	Transient bool
}

// NewStoreError wraps err as a StoreError for operation op.
func NewStoreError(op string, err error, transient bool) *StoreError {
	return &StoreError{Op: op, Err: err, Transient: transient}
}

func (e *StoreError) Error() string {
	if e.Transient {
		return fmt.Sprintf("%s: transient store failure: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: store failure: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// IsError reports whether err matches any of targets.
func IsError(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsBusinessError reports whether err is a validation or business-rule rejection.
func IsBusinessError(err error) bool {
	return err != nil && IsError(err, businessErrors...)
}

// IsTransient reports whether err carries a StoreError that may succeed on retry.
func IsTransient(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Transient
	}
	return false
}
