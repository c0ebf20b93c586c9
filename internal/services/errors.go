// Package services defines the business logic for the credit ledger and
// payment fulfillment. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers with errors.Is.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or inconsistent input. Never retryable
	// as-is.
	ErrValidation = errors.New("invalid request")

	// ErrUnknownPlan is returned when a plan id is not in the catalog.
	ErrUnknownPlan = fmt.Errorf("%w: unknown plan", ErrValidation)

	// ErrAuthentication is returned when a webhook signature does not match.
	ErrAuthentication = errors.New("webhook signature mismatch")

	// ErrGateway wraps a failure to reach or understand the payment provider.
	// The caller may retry.
	ErrGateway = errors.New("payment gateway error")

	// ErrPaymentNotFound is returned when a reference is unknown to the
	// provider or belongs to another user.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInsufficientCredits is returned by Consume when both pools are empty.
	ErrInsufficientCredits = errors.New("insufficient credits")
)
