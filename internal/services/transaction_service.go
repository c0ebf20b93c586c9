package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/repo"
	"github.com/tbourn/go-credits-backend/internal/utils"
)

// TransactionService exposes a user's fulfilled payments (read-only).
type TransactionService struct {
	DB *gorm.DB
}

// ListPage returns a page of transactions for a user, newest first, and the
// total count. It applies defaults for invalid page/pageSize.
func (s *TransactionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.PageOffset(page, pageSize)

	total, err := repo.CountTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Transaction{}, 0, nil
	}

	items, err := repo.ListTransactionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Stats returns the count and newest CreatedAt for ETag computation.
func (s *TransactionService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.TransactionsStats(ctx, s.DB, userID)
}
