package services

import (
	"testing"
	"time"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

func TestResetPolicy_ShouldReset(t *testing.T) {
	p := ResetPolicy{Location: time.UTC}
	cases := []struct {
		name string
		last domain.CalendarDate
		now  time.Time
		want bool
	}{
		{"same day morning", "2025-03-10", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"same day last second", "2025-03-10", time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC), false},
		{"next day first second", "2025-03-10", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), true},
		{"weeks later", "2025-03-10", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), true},
		{"same day-of-month next month", "2025-03-10", time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC), true},
		{"clock moved back", "2025-03-10", time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), true},
		{"never reset", "", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ShouldReset(tc.last, tc.now); got != tc.want {
				t.Fatalf("ShouldReset(%q, %v) = %v, want %v", tc.last, tc.now, got, tc.want)
			}
		})
	}
}

func TestResetPolicy_UsesLocation(t *testing.T) {
	p := ResetPolicy{Location: time.FixedZone("UTC+2", 2*60*60)}
	// 23:30 UTC on Jan 1 is already Jan 2 at UTC+2.
	now := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)
	if got := p.Today(now); got != "2025-01-02" {
		t.Fatalf("Today = %q, want 2025-01-02", got)
	}
	if !p.ShouldReset("2025-01-01", now) {
		t.Fatalf("expected reset across the local midnight")
	}
}

func TestResetPolicy_DailyAllowance(t *testing.T) {
	if got := (ResetPolicy{}).DailyAllowance(); got != DefaultDailyAllowance {
		t.Fatalf("default allowance = %d, want %d", got, DefaultDailyAllowance)
	}
	if got := (ResetPolicy{Allowance: 5}).DailyAllowance(); got != 5 {
		t.Fatalf("allowance = %d, want 5", got)
	}
}

func TestShouldReset_ServerLocalTime(t *testing.T) {
	now := time.Now()
	if ShouldReset(domain.DateOf(now.In(time.Local)), now) {
		t.Fatalf("today's date must not trigger a reset")
	}
}
