// Payment HTTP handlers.
//
// This file exposes the purchase flow:
//   - GET  /plans                          (catalog with display prices)
//   - POST /payments/initialize            (open a checkout, Idempotency-Key aware)
//   - GET  /payments/verify/{reference}    (client-triggered re-verification)
//   - POST /payments/webhook               (provider notification, HMAC signed)
//
// Both verify and webhook end in the same exactly-once fulfillment, so either
// may arrive first, twice, or concurrently.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-credits-backend/internal/http/middleware"
)

const (
	// HeaderSignature carries the webhook HMAC.
	HeaderSignature = "X-Signature"
	// HeaderPaystackSignature is the provider's native name for the same value.
	HeaderPaystackSignature = "X-Paystack-Signature"
	// HeaderIdempotencyReplayed marks a response served from a stored outcome.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

//
// DTOs
//

// PlanView is one catalog entry with its display price.
type PlanView struct {
	ID              string `json:"id" example:"8_credits"`
	Credits         int    `json:"credits" example:"8"`
	PriceMinorUnits int64  `json:"price_minor_units" example:"500"`
	DisplayPrice    string `json:"display_price" example:"NGN 5.00"`
}

// ListPlansResponse is the plan catalog.
type ListPlansResponse struct {
	Currency string     `json:"currency" example:"NGN"`
	Plans    []PlanView `json:"plans"`
}

// InitializePaymentRequest is the JSON payload for starting a purchase.
type InitializePaymentRequest struct {
	PlanID string `json:"plan_id" binding:"required" example:"8_credits"`
	Email  string `json:"email" binding:"required" example:"jane@example.com"`
}

// InitializePaymentResponse carries the checkout to redirect the user to.
type InitializePaymentResponse struct {
	Reference        string `json:"reference" example:"cr_4f1c2e0b9a7d4e3f8b6a5c4d3e2f1a0b"`
	AuthorizationURL string `json:"authorization_url" example:"https://checkout.paystack.com/abc123"`
	AccessCode       string `json:"access_code,omitempty"`
	PlanID           string `json:"plan_id,omitempty" example:"8_credits"`
	Credits          int    `json:"credits,omitempty" example:"8"`
	PriceMinorUnits  int64  `json:"price_minor_units,omitempty" example:"500"`
}

// VerifyPaymentResponse reports the outcome of a re-verification.
type VerifyPaymentResponse struct {
	Reference string `json:"reference"`
	// Status is the provider's charge status (success, failed, abandoned, ...).
	Status           string `json:"status" example:"success"`
	AlreadyProcessed bool   `json:"already_processed"`
	CreditsGranted   int    `json:"credits_granted"`
}

// WebhookResponse acknowledges a webhook delivery.
type WebhookResponse struct {
	Status           string `json:"status" example:"ok"`
	AlreadyProcessed bool   `json:"already_processed"`
	Ignored          bool   `json:"ignored"`
}

//
// Handlers
//

// ListPlans godoc
// @ID          listPlans
// @Summary     List credit plans
// @Tags        Payments
// @Produce     json
// @Success     200  {object}  handlers.ListPlansResponse
// @Router      /plans [get]
func (h *Handlers) ListPlans(c *gin.Context) {
	plans := h.payments.ListPlans()
	out := ListPlansResponse{Currency: h.prices.Currency(), Plans: make([]PlanView, 0, len(plans))}
	for _, p := range plans {
		out.Plans = append(out.Plans, PlanView{
			ID:              p.ID,
			Credits:         p.Credits,
			PriceMinorUnits: p.PriceMinorUnits,
			DisplayPrice:    h.prices.Format(p.PriceMinorUnits),
		})
	}
	ok(c, http.StatusOK, out)
}

// InitializePayment godoc
// @ID          initializePayment
// @Summary     Start a credit purchase
// @Description Opens a checkout with the payment provider for the chosen plan.
// @Description Supports idempotency via the Idempotency-Key header (same key returns the same reference).
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "User ID"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.InitializePaymentRequest  true  "Plan and payer email"
//
// @Success     200  {object}  handlers.InitializePaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown plan or invalid email"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     502  {object}  handlers.ErrorResponse  "Payment provider unavailable"
// @Router      /payments/initialize [post]
func (h *Handlers) InitializePayment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()

	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)

	// Replay path.
	if idemKey != "" && h.idem != nil {
		rec, err := h.idem.Lookup(ctx, uid, scope, idemKey)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, rec.Status, InitializePaymentResponse{
				Reference:        rec.Reference,
				AuthorizationURL: rec.AuthorizationURL,
			})
			return
		}
	}

	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plan_id and email are required")
		return
	}

	intent, err := h.payments.InitializePayment(ctx, uid, req.PlanID, req.Email)
	if err != nil {
		failErr(c, err)
		return
	}

	// Store path (best effort).
	if idemKey != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, uid, scope, idemKey, intent.Reference, intent.AuthorizationURL, http.StatusOK); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("reference", intent.Reference).Msg("idempotency store failed")
		}
	}

	ok(c, http.StatusOK, InitializePaymentResponse{
		Reference:        intent.Reference,
		AuthorizationURL: intent.AuthorizationURL,
		AccessCode:       intent.AccessCode,
		PlanID:           intent.PlanID,
		Credits:          intent.CreditAmount,
		PriceMinorUnits:  intent.PriceMinorUnits,
	})
}

// VerifyPayment godoc
// @ID          verifyPayment
// @Summary     Verify a payment and grant its credits
// @Description Asks the provider for the charge status and, on success, grants the credits exactly once.
// @Description Repeating the call is safe and reports already_processed. Only the user who opened the payment may verify it.
// @Tags        Payments
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"            example(user123)
// @Param       reference  path    string  true  "Payment reference"  example(cr_4f1c2e0b9a7d4e3f8b6a5c4d3e2f1a0b)
//
// @Success     200  {object}  handlers.VerifyPaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown reference or opened by another user"
// @Failure     502  {object}  handlers.ErrorResponse  "Payment provider unavailable"
// @Router      /payments/verify/{reference} [get]
func (h *Handlers) VerifyPayment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ref := strings.TrimSpace(c.Param("reference"))
	if ref == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reference required")
		return
	}

	res, err := h.fulfillment.VerifyAndFulfill(c.Request.Context(), uid, ref)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, VerifyPaymentResponse{
		Reference:        res.Reference,
		Status:           string(res.Status),
		AlreadyProcessed: res.AlreadyProcessed,
		CreditsGranted:   res.CreditsGranted,
	})
}

// PaymentWebhook godoc
// @ID          paymentWebhook
// @Summary     Payment provider webhook
// @Description Receives signed provider events. The HMAC-SHA512 signature is checked over the raw body.
// @Description charge.success grants credits exactly once; other events are acknowledged and ignored.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-Signature           header  string  false  "Hex HMAC-SHA512 of the raw body"
// @Param       X-Paystack-Signature  header  string  false  "Provider name for the same signature"
//
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid signature or malformed payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error (provider will retry)"
// @Router      /payments/webhook [post]
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	// The signature covers these exact bytes; never re-encode them.
	raw, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}
	sig := c.GetHeader(HeaderSignature)
	if sig == "" {
		sig = c.GetHeader(HeaderPaystackSignature)
	}

	res, err := h.fulfillment.HandleWebhook(c.Request.Context(), raw, sig)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, WebhookResponse{
		Status:           "ok",
		AlreadyProcessed: res.AlreadyProcessed,
		Ignored:          res.Ignored,
	})
}
