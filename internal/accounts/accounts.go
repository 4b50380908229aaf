// Package accounts talks to the external money-movement service that owns
// holds and withdrawals.
package accounts

import (
	"context"
	"errors"
	"fmt"
)

// Error codes returned by the accounts service.
const (
	CodeDeclined             = "declined"
	CodeInsufficientFunds    = "insufficient_funds"
	CodeInvalidAccountNumber = "invalid_account_number"
	CodeInvalidAmount        = "invalid_amount"
	CodeServiceUnavailable   = "service_unavailable"
	CodeUnknown              = "unknown"
)

// HoldReference is an opaque token identifying a reservation of funds.
type HoldReference string

type Receipt struct {
	ID string `json:"receipt_id"`
}

// Service is the outbound contract. Every call is attempted once; retries, if
// any, are the implementation's concern.
type Service interface {
	PlaceHold(ctx context.Context, accountNumber string, amount int64) (HoldReference, error)
	WithdrawFunds(ctx context.Context, hold HoldReference) (*Receipt, error)
	ReleaseHold(ctx context.Context, hold HoldReference) error
}

// Error is a failure reported by the accounts service, identified by Code.
type Error struct {
	Code       string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("accounts service error %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("accounts service error %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(code string) *Error {
	return &Error{Code: code}
}

// CodeOf extracts the accounts error code from err. Errors that did not come
// from the accounts service map to CodeUnknown.
func CodeOf(err error) string {
	var accErr *Error
	if errors.As(err, &accErr) && accErr.Code != "" {
		return accErr.Code
	}
	return CodeUnknown
}
