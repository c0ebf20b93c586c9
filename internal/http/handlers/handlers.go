// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they read the caller identity, bind and
// validate input, call an application service and translate the result (or
// the service's sentinel error) into a JSON response.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/gateway"
	"github.com/tbourn/go-credits-backend/internal/http/middleware"
	"github.com/tbourn/go-credits-backend/internal/services"
	"github.com/tbourn/go-credits-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CreditService spends and reports AI generation credits.
type CreditService interface {
	// Consume spends one credit, free allowance first.
	Consume(ctx context.Context, userID string) (*services.ConsumeResult, error)
	// Peek returns the account after applying the daily reset.
	Peek(ctx context.Context, userID string) (*domain.CreditAccount, error)
}

// PaymentService starts purchases against the plan catalog.
type PaymentService interface {
	ListPlans() []services.Plan
	InitializePayment(ctx context.Context, userID, planID, email string) (*gateway.PaymentIntent, error)
}

// FulfillmentService converts payment confirmations into credits.
type FulfillmentService interface {
	// VerifyAndFulfill is scoped to the caller: references opened by another
	// user report services.ErrPaymentNotFound.
	VerifyAndFulfill(ctx context.Context, userID, reference string) (*services.FulfillmentResult, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*services.FulfillmentResult, error)
}

// TransactionService lists fulfilled payments.
type TransactionService interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// IdempotencyStore replays POST /payments/initialize outcomes.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error)
	Remember(ctx context.Context, userID, scope, key, reference, authorizationURL string, status int) error
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Idempotency is optional.
type Services struct {
	Credits      CreditService
	Payments     PaymentService
	Fulfillment  FulfillmentService
	Transactions TransactionService
	Idempotency  IdempotencyStore
	Prices       services.PriceFormatter
}

// Handlers groups the credit, payment and transaction endpoints.
type Handlers struct {
	credits      CreditService
	payments     PaymentService
	fulfillment  FulfillmentService
	transactions TransactionService
	idem         IdempotencyStore
	prices       services.PriceFormatter
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		credits:      s.Credits,
		payments:     s.Payments,
		fulfillment:  s.Fulfillment,
		transactions: s.Transactions,
		idem:         s.Idempotency,
		prices:       s.Prices,
	}
}

//
// Helpers
//

// requireUser returns the caller identity or writes 401. Identity is
// asserted upstream; there is no anonymous fallback for balance-bearing
// routes.
func requireUser(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return "", false
	}
	return uid, true
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
