package services

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-credits-backend/internal/domain"
)

func TestTransactionService_ListPageAndStats(t *testing.T) {
	db := newServiceDB(t)
	s := &TransactionService{DB: db}
	ctx := context.Background()

	items, total, err := s.ListPage(ctx, "u1", 0, 0)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty list: items=%v total=%d err=%v", items, total, err)
	}
	if n, latest, err := s.Stats(ctx, "u1"); err != nil || n != 0 || latest != nil {
		t.Fatalf("empty stats: n=%d latest=%v err=%v", n, latest, err)
	}

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, ref := range []string{"a", "b", "c"} {
		row := &domain.Transaction{
			Reference: ref, UserID: "u1", PlanID: "1_credit", CreditsGranted: 1, AmountMinorUnits: 100,
			Status: domain.TransactionSuccess, Channel: domain.ChannelWebhook, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err = s.ListPage(ctx, "u1", 1, 2)
	if err != nil || total != 3 || len(items) != 2 || items[0].Reference != "c" {
		t.Fatalf("page 1: items=%+v total=%d err=%v", items, total, err)
	}
	n, latest, err := s.Stats(ctx, "u1")
	if err != nil || n != 3 || latest == nil || !latest.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("stats: n=%d latest=%v err=%v", n, latest, err)
	}
}
