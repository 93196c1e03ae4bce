package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMethod     = errors.New("invalid method")
	ErrMethodDisabled    = errors.New("method is not enabled")
	ErrInvalidPayoutType = errors.New("invalid payout type")
	ErrNotFound          = errors.New("not found")
	ErrCredentialFailure = errors.New("credential failure")
	ErrTransientIO       = errors.New("transient io failure")
	ErrClaimConflict     = errors.New("claim conflict")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrStatusConflict    = errors.New("status transition not allowed")
)

// AmountError reports the configured bound an amount violated.
type AmountError struct {
	Amount decimal.Decimal
	Bound  decimal.Decimal
	Reason string
}

func (e *AmountError) Error() string {
	switch {
	case e.Reason == "":
		return fmt.Sprintf("invalid amount %s", e.Amount)
	case e.Bound.IsZero():
		return fmt.Sprintf("invalid amount %s: %s", e.Amount, e.Reason)
	}
	return fmt.Sprintf("invalid amount %s: %s %s", e.Amount, e.Reason, e.Bound)
}

func (e *AmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}
