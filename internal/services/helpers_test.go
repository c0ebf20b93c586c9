package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/gateway"
)

// newServiceDB opens a per-test in-memory database with the full schema.
// A single connection serializes transactions the way row locks would on a
// server database, so concurrent tests exercise the conditional SQL rather
// than SQLite's shared-cache table locks.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&domain.CreditAccount{}, &domain.Transaction{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// fakeGateway is an in-memory gateway.Client.
type fakeGateway struct {
	mu sync.Mutex

	initReq   gateway.InitializeRequest
	initCalls int
	initErr   error

	verify      map[string]*gateway.VerifyResult
	verifyErr   error
	verifyCalls int
}

func (g *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	g.initReq = req
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.PaymentIntent{
		Reference:        req.Reference,
		AuthorizationURL: "https://checkout.example/" + req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if r, ok := g.verify[reference]; ok {
		return r, nil
	}
	return &gateway.VerifyResult{Status: gateway.StatusAbandoned, Charge: gateway.ChargePayload{Reference: reference}}, nil
}

func (g *fakeGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initCalls, g.verifyCalls
}

func mustAccount(t *testing.T, l *CreditLedger, userID string) domain.CreditAccount {
	t.Helper()
	acc, err := l.Peek(context.Background(), userID)
	if err != nil {
		t.Fatalf("Peek(%s): %v", userID, err)
	}
	return *acc
}
