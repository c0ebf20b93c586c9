// Package handlers provides HTTP handler implementations for the public API.
//
// This file owns the response envelope. Every failure leaves through fail as
//
//	{"request_id": "...", "code": "insufficient_credits", "message": "no credits left"}
//
// and service sentinels are translated by failErr through serviceErrors, so
// the status a client sees for an empty balance, a forged webhook or a
// provider outage is decided in one table.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-credits-backend/internal/http/middleware"
	"github.com/tbourn/go-credits-backend/internal/services"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID, for matching client reports to server logs.
	RequestID string `json:"request_id,omitempty" example:"f2a4b3c9-1a2b-4c5d-9e8f-1234567890ab"`
	// Stable machine-readable code, see errors.go.
	Code    string `json:"code" example:"insufficient_credits"`
	Message string `json:"message" example:"no credits left"`
}

// gatewayRetryAfter is the Retry-After hint, in seconds, sent with 502s.
const gatewayRetryAfter = "5"

// serviceError maps one service sentinel onto the envelope. An empty
// message passes the error text through; only validation errors do that,
// since their text describes the caller's own input.
type serviceError struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is checked in order with errors.Is. ErrUnknownPlan wraps
// ErrValidation, so specific entries precede the generic ones.
var serviceErrors = []serviceError{
	{services.ErrInsufficientCredits, http.StatusPaymentRequired, ErrCodeInsufficientCredits, "no credits left"},
	{services.ErrAuthentication, http.StatusBadRequest, ErrCodeInvalidSignature, "invalid signature"},
	{services.ErrPaymentNotFound, http.StatusNotFound, ErrCodeNotFound, "payment not found"},
	{services.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{services.ErrGateway, http.StatusBadGateway, ErrCodeGateway, "payment provider unavailable, retry later"},
}

// failErr answers err with the matching envelope. Errors outside the table
// are attached to the Gin context for the access log and answered with a
// generic 500 so internals never reach the client.
func failErr(c *gin.Context, err error) {
	for _, se := range serviceErrors {
		if !errors.Is(err, se.target) {
			continue
		}
		msg := se.message
		if msg == "" {
			msg = err.Error()
		}
		if se.status == http.StatusBadGateway {
			_ = c.Error(err)
			c.Header("Retry-After", gatewayRetryAfter)
		}
		fail(c, se.status, se.code, msg)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// fail aborts with the error envelope. The code is recorded for the access
// log and the error metrics; 5xx are also logged with the request logger.
func fail(c *gin.Context, status int, code, msg string) {
	middleware.SetErrorCode(c, code)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for the router's NoRoute and NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
