// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Transaction model, the durable record of fulfilled payments.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

// InsertOutcome tells the caller whether InsertTransaction wrote a new row or
// found the reference already recorded.
type InsertOutcome int

const (
	// Inserted means this call created the row and owns the fulfillment.
	Inserted InsertOutcome = iota + 1
	// Conflicted means a row for the reference already existed.
	Conflicted
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Conflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// InsertTransaction records t unless its reference already exists.
//
// The insert uses ON CONFLICT DO NOTHING so a duplicate does not abort the
// surrounding transaction on PostgreSQL. A unique-violation error from a
// driver that ignores the clause is still reported as Conflicted.
func InsertTransaction(ctx context.Context, db *gorm.DB, t *domain.Transaction) (InsertOutcome, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(t)
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return Conflicted, nil
		}
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return Conflicted, nil
	}
	return Inserted, nil
}

// GetTransaction fetches a transaction by reference or returns ErrNotFound.
func GetTransaction(ctx context.Context, db *gorm.DB, reference string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := db.WithContext(ctx).Where("reference = ?", reference).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTransactions returns the number of fulfilled transactions for userID.
func CountTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Transaction{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

// ListTransactionsPage returns a page of the user's transactions, newest
// first (CreatedAt DESC, Reference ASC).
func ListTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, reference ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
