// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, not on
// messages. Generic codes mirror HTTP status semantics; domain codes name
// outcomes the status alone cannot convey (an empty balance is 402, a bad
// webhook signature is a 400 distinct from a malformed body).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "insufficient_credits",
//	  "message": "no credits left"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidSignature    = "invalid_signature"
	ErrCodeGateway             = "gateway_error"
	ErrCodeInsufficientCredits = "insufficient_credits"
)
