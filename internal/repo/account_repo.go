// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CreditAccount model.
//
// Every mutation here is a single conditional UPDATE so that concurrent
// callers can never drive a balance below zero or apply a daily reset twice.
// Callers compose these inside a transaction (see services.CreditLedger).
//
// Errors
//
//   - gorm.ErrRecordNotFound
//     Returned when no account exists for the user
//     (also exported here as ErrNotFound for convenience).
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use errors.Is with either
// value.
var ErrNotFound = gorm.ErrRecordNotFound

// EnsureAccount creates the account for userID with a full daily allowance
// dated today. If the account already exists it is left untouched.
func EnsureAccount(ctx context.Context, db *gorm.DB, userID string, allowance int, today domain.CalendarDate) error {
	acc := &domain.CreditAccount{
		UserID:        userID,
		FreeCredits:   allowance,
		LastResetDate: today,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(acc).Error
}

// GetAccount loads the account for userID or returns ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.CreditAccount, error) {
	var acc domain.CreditAccount
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// ResetFreeCredits sets free credits back to allowance and stamps today,
// but only if the row still carries the observed last reset date. It reports
// whether this call performed the reset; false means another caller already
// did.
func ResetFreeCredits(ctx context.Context, db *gorm.DB, userID string, observed, today domain.CalendarDate, allowance int) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.CreditAccount{}).
		Where("user_id = ? AND last_reset_date = ?", userID, observed).
		Updates(map[string]any{
			"free_credits":    allowance,
			"last_reset_date": today,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementFree removes one free credit if any remain. It reports whether a
// credit was taken.
func DecrementFree(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	return decrementIfPositive(ctx, db, userID, "free_credits")
}

// DecrementPurchased removes one purchased credit if any remain. It reports
// whether a credit was taken.
func DecrementPurchased(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	return decrementIfPositive(ctx, db, userID, "purchased_credits")
}

func decrementIfPositive(ctx context.Context, db *gorm.DB, userID, column string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.CreditAccount{}).
		Where("user_id = ? AND "+column+" > 0", userID).
		Update(column, gorm.Expr(column+" - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementPurchased adds amount to the purchased pool. It returns
// ErrNotFound if the account does not exist.
func IncrementPurchased(ctx context.Context, db *gorm.DB, userID string, amount int) error {
	res := db.WithContext(ctx).
		Model(&domain.CreditAccount{}).
		Where("user_id = ?", userID).
		Update("purchased_credits", gorm.Expr("purchased_credits + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
