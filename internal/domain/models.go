// Package domain defines the persistence models for credit accounts and
// fulfilled payment transactions. These types are mapped with GORM and form
// the core data layer of the credits service.
package domain

import (
	"time"
)

// CalendarDate is a wall-clock calendar day formatted as YYYY-MM-DD.
// Two instants fall on the same day iff their CalendarDate values are equal.
type CalendarDate string

// calendarLayout is the storage layout of CalendarDate.
const calendarLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate(t.Format(calendarLayout))
}

// String implements fmt.Stringer.
func (d CalendarDate) String() string { return string(d) }

// CreditAccount is the per-user account of AI generation credits. It holds
// two independent pools:
//
//   - FreeCredits: the daily allowance, refilled lazily once per calendar day.
//   - PurchasedCredits: the permanent reserve, increased only by payment
//     fulfillment and never reset.
//
// Both counters are guarded by CHECK constraints and are only ever mutated
// through conditional updates in the repo package.
//
// Fields:
//   - UserID: opaque identifier of the owner (primary key, one row per user).
//   - FreeCredits: remaining daily allowance (0..daily max).
//   - PurchasedCredits: remaining purchased credits (>= 0).
//   - LastResetDate: the day on which FreeCredits was last refilled.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type CreditAccount struct {
	UserID           string       `json:"user_id"           gorm:"type:varchar(64);primaryKey"`
	FreeCredits      int          `json:"free_credits"      gorm:"not null;check:free_credits >= 0"`
	PurchasedCredits int          `json:"purchased_credits" gorm:"not null;check:purchased_credits >= 0"`
	LastResetDate    CalendarDate `json:"last_reset_date"   gorm:"type:varchar(10);not null"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TableName returns the database table name for CreditAccount.
func (CreditAccount) TableName() string { return "credit_accounts" }

// Total returns the number of credits currently spendable.
func (a CreditAccount) Total() int { return a.FreeCredits + a.PurchasedCredits }

// TransactionStatus is the state of a persisted transaction. Only fulfilled
// (successful) charges are ever written.
type TransactionStatus string

// TransactionSuccess marks a charge that was confirmed and credited.
const TransactionSuccess TransactionStatus = "success"

// Channel names the entry point that fulfilled a transaction.
type Channel string

const (
	// ChannelVerify is the client-initiated re-verification path.
	ChannelVerify Channel = "verify"
	// ChannelWebhook is the asynchronous provider notification path.
	ChannelWebhook Channel = "webhook"
)

// Transaction is the durable record of one fulfilled payment. The provider
// reference is the primary key, so at most one row can exist per reference;
// the row's existence is what prevents a second credit grant. Rows are
// write-once: there is no UpdatedAt and no soft delete.
type Transaction struct {
	Reference        string            `json:"reference"          gorm:"type:varchar(128);primaryKey"`
	UserID           string            `json:"user_id"            gorm:"type:varchar(64);not null;index:idx_user_transactions,priority:1"`
	PlanID           string            `json:"plan_id,omitempty"  gorm:"type:varchar(64);not null"`
	CreditsGranted   int               `json:"credits_granted"    gorm:"not null;check:credits_granted > 0"`
	AmountMinorUnits int64             `json:"amount_minor_units" gorm:"not null;check:amount_minor_units >= 0"`
	Status           TransactionStatus `json:"status"             gorm:"type:varchar(16);not null;check:status IN ('success')"`
	Channel          Channel           `json:"channel"            gorm:"type:varchar(16);not null"`
	CreatedAt        time.Time         `json:"created_at"         gorm:"index:idx_user_transactions,priority:2"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }
