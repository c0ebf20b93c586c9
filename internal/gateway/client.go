// Package gateway talks to the external payment provider.
//
// It defines the provider-neutral Client interface used by the services
// layer (initialize a charge, verify a charge by reference), the typed
// webhook payload the provider pushes to us, and the HMAC-SHA512 signature
// check that authenticates those pushes. PaystackClient is the concrete
// HTTP implementation.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by Client implementations.
var (
	// ErrUnavailable means the provider could not be reached, timed out,
	// answered with a 5xx, or the circuit breaker is open. Retryable.
	ErrUnavailable = errors.New("payment provider unavailable")
	// ErrRejected means the provider answered but refused the request.
	ErrRejected = errors.New("payment provider rejected request")
	// ErrMalformed means a provider response or webhook body could not be
	// decoded into the expected shape.
	ErrMalformed = errors.New("malformed provider payload")
)

// Client is the subset of the provider API the credits service needs.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*PaymentIntent, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// Metadata is the custom data attached to a charge at initialization and
// echoed back by verify and webhook payloads.
type Metadata struct {
	UserID  string  `json:"userId"`
	Credits FlexInt `json:"credits"`
	PlanID  string  `json:"planId,omitempty"`
}

// UnmarshalJSON accepts an object, or a string holding an object. The
// provider sends an empty string when a charge carries no metadata.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	type plain Metadata
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = Metadata{}
			return nil
		}
		b = []byte(s)
	}
	if bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	return nil
}

// FlexInt decodes from a JSON number or a string containing an integer.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		s = strings.TrimSpace(raw)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("credits: %w", err)
	}
	*f = FlexInt(n)
	return nil
}

// InitializeRequest describes a charge to open with the provider.
type InitializeRequest struct {
	Email            string
	AmountMinorUnits int64
	Reference        string
	Metadata         Metadata
}

// PaymentIntent is the transient result of initializing a purchase.
type PaymentIntent struct {
	PlanID           string `json:"plan_id,omitempty"`
	CreditAmount     int    `json:"credit_amount"`
	PriceMinorUnits  int64  `json:"price_minor_units"`
	UserID           string `json:"user_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
}

// ChargeStatus is the provider's view of a charge.
type ChargeStatus string

// Statuses reported to callers. Only StatusSuccess leads to fulfillment.
const (
	StatusSuccess   ChargeStatus = "success"
	StatusFailed    ChargeStatus = "failed"
	StatusAbandoned ChargeStatus = "abandoned"
	StatusPending   ChargeStatus = "pending"
)

// Provider statuses folded into the ones above by Normalize.
const (
	StatusOngoing    ChargeStatus = "ongoing"
	StatusQueued     ChargeStatus = "queued"
	StatusProcessing ChargeStatus = "processing"
	StatusReversed   ChargeStatus = "reversed"
)

// Normalize maps a provider status onto success, failed, abandoned or
// pending. In-flight states become pending and a reversed charge is failed.
// Anything unrecognized is pending: it is never treated as paid.
func (s ChargeStatus) Normalize() ChargeStatus {
	switch st := ChargeStatus(strings.ToLower(strings.TrimSpace(string(s)))); st {
	case StatusSuccess, StatusFailed, StatusAbandoned, StatusPending:
		return st
	case StatusReversed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// ChargePayload is the provider-confirmed data needed to fulfill a purchase.
type ChargePayload struct {
	Reference        string
	UserID           string
	Credits          int
	PlanID           string
	AmountMinorUnits int64
}

// VerifyResult is the outcome of looking up a charge by reference.
type VerifyResult struct {
	Status ChargeStatus
	Charge ChargePayload
}

// EventChargeSuccess is the webhook event that confirms a payment.
const EventChargeSuccess = "charge.success"

// ChargeData is the "data" object of verify responses and webhook events.
type ChargeData struct {
	Reference string       `json:"reference"`
	Amount    int64        `json:"amount"`
	Status    ChargeStatus `json:"status"`
	Metadata  Metadata     `json:"metadata"`
}

// Payload maps provider charge data to a ChargePayload.
func (d ChargeData) Payload() ChargePayload {
	return ChargePayload{
		Reference:        strings.TrimSpace(d.Reference),
		UserID:           strings.TrimSpace(d.Metadata.UserID),
		Credits:          int(d.Metadata.Credits),
		PlanID:           strings.TrimSpace(d.Metadata.PlanID),
		AmountMinorUnits: d.Amount,
	}
}

// WebhookEvent is a typed provider push notification.
type WebhookEvent struct {
	Event string     `json:"event"`
	Data  ChargeData `json:"data"`
}

// ParseWebhookEvent decodes a raw webhook body. It fails with ErrMalformed
// when the body is not a JSON object or has no event name.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(ev.Event) == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformed)
	}
	if ev.Data.Status != "" {
		ev.Data.Status = ev.Data.Status.Normalize()
	}
	return &ev, nil
}
