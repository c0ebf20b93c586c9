package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedTxn(t *testing.T, db *gorm.DB, ref, userID string, credits int, at time.Time) {
	t.Helper()
	row := &domain.Transaction{
		Reference:        ref,
		UserID:           userID,
		PlanID:           "8_credits",
		CreditsGranted:   credits,
		AmountMinorUnits: 500,
		Status:           domain.TransactionSuccess,
		Channel:          domain.ChannelWebhook,
		CreatedAt:        at,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed transaction %s: %v", ref, err)
	}
}

func TestTransactionsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := TransactionsStats(context.Background(), db, "u1")
	if err == nil {
		t.Fatalf("expected error due to missing transactions table")
	}
}

func TestTransactionsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Transaction{})
	count, latest, err := TransactionsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("TransactionsStats error: %v", err)
	}
	if count != 0 || latest != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, latest)
	}
}

func TestTransactionsStats_Success_FilterAndLatest(t *testing.T) {
	db := newTestDB(t, &domain.Transaction{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // latest for u1
	t3 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)   // other user, newer

	seedTxn(t, db, "r1", "u1", 1, t1)
	seedTxn(t, db, "r2", "u1", 8, t2)
	seedTxn(t, db, "r3", "u2", 20, t3)

	count, latest, err := TransactionsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("TransactionsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count=2, got %d", count)
	}
	if latest == nil || !latest.Equal(t2) {
		t.Fatalf("expected latest=%v, got %v", t2, latest)
	}
}
