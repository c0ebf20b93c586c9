// Package services – CreditLedger
//
// CreditLedger owns every balance change on a CreditAccount. Consumption
// draws from the daily free pool first and the purchased pool second; the
// purchased pool only grows through GrantPurchased, which must run inside the
// FulfillmentCoordinator's transaction.
//
// All writes are conditional single-row UPDATEs executed in one DB
// transaction per call, so concurrent requests for the same user can never
// over-consume or double-reset.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreditSource names the pool a consumed credit came from.
type CreditSource string

const (
	SourceFree      CreditSource = "free"
	SourcePurchased CreditSource = "purchased"
)

// ConsumeResult reports which pool paid for a consumption and the balances
// that remain.
type ConsumeResult struct {
	Source  CreditSource
	Account domain.CreditAccount
}

// CreditLedger manages credit balances.
type CreditLedger struct {
	DB     *gorm.DB
	Policy ResetPolicy

	// Now overrides the wall clock (tests). Optional.
	Now func() time.Time
}

func (l *CreditLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Consume spends one credit for userID, preferring the free pool. It returns
// ErrInsufficientCredits, with no state change, when both pools are empty.
func (l *CreditLedger) Consume(ctx context.Context, userID string) (*ConsumeResult, error) {
	tr := otel.Tracer("services/CreditLedger")
	ctx, span := tr.Start(ctx, "Consume",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	var out ConsumeResult
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.refresh(ctx, tx, userID); err != nil {
			return err
		}

		src := SourceFree
		took, err := repo.DecrementFree(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !took {
			src = SourcePurchased
			if took, err = repo.DecrementPurchased(ctx, tx, userID); err != nil {
				return err
			}
		}
		if !took {
			return ErrInsufficientCredits
		}

		acc, err := repo.GetAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		out = ConsumeResult{Source: src, Account: *acc}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrInsufficientCredits) {
			outcome = "insufficient"
		}
		consumptionsTotal.WithLabelValues("none", outcome).Inc()
		span.RecordError(err)
		return nil, err
	}

	consumptionsTotal.WithLabelValues(string(out.Source), "ok").Inc()
	span.SetAttributes(attribute.String("credits.source", string(out.Source)))
	return &out, nil
}

// Peek returns the current balances for userID, creating the account and
// applying a pending daily reset if needed.
func (l *CreditLedger) Peek(ctx context.Context, userID string) (*domain.CreditAccount, error) {
	tr := otel.Tracer("services/CreditLedger")
	ctx, span := tr.Start(ctx, "Peek",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	var acc *domain.CreditAccount
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		acc, err = l.refresh(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// GrantPurchased adds amount credits to the purchased pool. tx must be the
// caller's open transaction; the grant commits or rolls back with it.
func (l *CreditLedger) GrantPurchased(ctx context.Context, tx *gorm.DB, userID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: grant amount must be positive", ErrValidation)
	}
	if err := repo.EnsureAccount(ctx, tx, userID, l.Policy.DailyAllowance(), l.Policy.Today(l.now())); err != nil {
		return err
	}
	if err := repo.IncrementPurchased(ctx, tx, userID, amount); err != nil {
		return err
	}
	creditsGrantedTotal.Add(float64(amount))
	return nil
}

// refresh makes sure the account exists and carries today's allowance.
// The reset is a compare-and-set on the observed date, so racing callers
// restore the allowance exactly once.
func (l *CreditLedger) refresh(ctx context.Context, tx *gorm.DB, userID string) (*domain.CreditAccount, error) {
	now := l.now()
	today := l.Policy.Today(now)
	allowance := l.Policy.DailyAllowance()

	if err := repo.EnsureAccount(ctx, tx, userID, allowance, today); err != nil {
		return nil, err
	}
	acc, err := repo.GetAccount(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !l.Policy.ShouldReset(acc.LastResetDate, now) {
		return acc, nil
	}

	did, err := repo.ResetFreeCredits(ctx, tx, userID, acc.LastResetDate, today, allowance)
	if err != nil {
		return nil, err
	}
	if did {
		zerolog.Ctx(ctx).Debug().
			Str("user_id", userID).
			Str("from", acc.LastResetDate.String()).
			Str("to", today.String()).
			Msg("daily allowance reset")
	}
	return repo.GetAccount(ctx, tx, userID)
}
