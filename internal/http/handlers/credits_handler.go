// Credit HTTP handlers.
//
// This file exposes the ledger and its history:
//   - GET  /credits           (balances, applying the daily reset)
//   - POST /credits/consume   (spend one credit, free first)
//   - GET  /transactions      (fulfilled payments, paginated, ETag support)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

//
// DTOs
//

// CreditsResponse reports a user's balances.
type CreditsResponse struct {
	UserID           string `json:"user_id" example:"user123"`
	FreeCredits      int    `json:"free_credits" example:"3"`
	PurchasedCredits int    `json:"purchased_credits" example:"8"`
	TotalCredits     int    `json:"total_credits" example:"11"`
	// LastResetDate is the day the free allowance was last refilled.
	LastResetDate string `json:"last_reset_date" example:"2025-01-31"`
}

// ConsumeResponse reports which pool paid and what remains.
type ConsumeResponse struct {
	// Source is "free" or "purchased".
	Source           string `json:"source" example:"free"`
	FreeCredits      int    `json:"free_credits" example:"2"`
	PurchasedCredits int    `json:"purchased_credits" example:"8"`
}

// ListTransactionsResponse wraps a page of fulfilled payments.
type ListTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}

//
// Handlers
//

// GetCredits godoc
// @ID          getCredits
// @Summary     Get credit balances
// @Description Returns the caller's free and purchased credits. The first call creates the account with the daily allowance.
// @Tags        Credits
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     200  {object}  handlers.CreditsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /credits [get]
func (h *Handlers) GetCredits(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	acc, err := h.credits.Peek(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CreditsResponse{
		UserID:           acc.UserID,
		FreeCredits:      acc.FreeCredits,
		PurchasedCredits: acc.PurchasedCredits,
		TotalCredits:     acc.Total(),
		LastResetDate:    acc.LastResetDate.String(),
	})
}

// ConsumeCredit godoc
// @ID          consumeCredit
// @Summary     Spend one credit
// @Description Spends one credit for an AI generation, taking from the daily free allowance before purchased credits.
// @Tags        Credits
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     200  {object}  handlers.ConsumeResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     402  {object}  handlers.ErrorResponse  "No credits left"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /credits/consume [post]
func (h *Handlers) ConsumeCredit(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	res, err := h.credits.Consume(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ConsumeResponse{
		Source:           string(res.Source),
		FreeCredits:      res.Account.FreeCredits,
		PurchasedCredits: res.Account.PurchasedCredits,
	})
}

// ListTransactions godoc
// @ID          listTransactions
// @Summary     List fulfilled payments (paginated)
// @Description Returns the caller's fulfilled payments, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Credits
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "User ID"                     example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false  "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListTransactionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /transactions [get]
func (h *Handlers) ListTransactions(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Rows are write-once, so count and newest
	// timestamp identify the collection.
	if count, maxTS, err := h.transactions.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"transactions:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.transactions.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListTransactionsResponse{
		Transactions: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}
