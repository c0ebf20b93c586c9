package services

import (
	"time"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

// DefaultDailyAllowance is the number of free credits restored each day.
const DefaultDailyAllowance = 3

// ResetPolicy decides when the free allowance is restored. The day boundary
// is the calendar date of the server's wall clock in Location.
type ResetPolicy struct {
	// Allowance is the free credit count after a reset. Zero or negative
	// means DefaultDailyAllowance.
	Allowance int
	// Location defaults to time.Local.
	Location *time.Location
}

// DailyAllowance returns the effective allowance.
func (p ResetPolicy) DailyAllowance() int {
	if p.Allowance <= 0 {
		return DefaultDailyAllowance
	}
	return p.Allowance
}

// Today returns the calendar date of now in the policy's location.
func (p ResetPolicy) Today(now time.Time) domain.CalendarDate {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return domain.DateOf(now.In(loc))
}

// ShouldReset reports whether an account last reset on last is due for a
// reset at now. It has no side effects.
func (p ResetPolicy) ShouldReset(last domain.CalendarDate, now time.Time) bool {
	return p.Today(now) != last
}

// ShouldReset applies the default policy (server local time).
func ShouldReset(last domain.CalendarDate, now time.Time) bool {
	return ResetPolicy{}.ShouldReset(last, now)
}
