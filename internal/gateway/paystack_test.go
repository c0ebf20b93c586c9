package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *PaystackClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewPaystackClient(PaystackConfig{
		SecretKey:   "sk_test",
		BaseURL:     srv.URL,
		CallbackURL: "https://app.example/callback",
		Timeout:     2 * time.Second,
	})
}

func TestPaystack_Initialize(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("missing bearer secret, got %q", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, `{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"ref-1"}}`)
	})

	intent, err := c.Initialize(context.Background(), InitializeRequest{
		Email:            "a@b.c",
		AmountMinorUnits: 500,
		Reference:        "ref-1",
		Metadata:         Metadata{UserID: "u1", Credits: 8, PlanID: "8_credits"},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if intent.AuthorizationURL != "https://checkout.example/abc" || intent.Reference != "ref-1" ||
		intent.CreditAmount != 8 || intent.PriceMinorUnits != 500 || intent.UserID != "u1" || intent.PlanID != "8_credits" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	if got["email"] != "a@b.c" || got["amount"] != float64(500) || got["callback_url"] != "https://app.example/callback" {
		t.Fatalf("unexpected request body: %v", got)
	}
	md, _ := got["metadata"].(map[string]any)
	if md["userId"] != "u1" || md["credits"] != float64(8) {
		t.Fatalf("unexpected metadata: %v", md)
	}
}

func TestPaystack_Verify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref-9","amount":1000,"metadata":{"userId":"u2","credits":"20","planId":"20_credits"}}}`)
	})

	res, err := c.Verify(context.Background(), "ref-9")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %q", res.Status)
	}
	want := ChargePayload{Reference: "ref-9", UserID: "u2", Credits: 20, PlanID: "20_credits", AmountMinorUnits: 1000}
	if res.Charge != want {
		t.Fatalf("charge = %+v, want %+v", res.Charge, want)
	}
}

func TestPaystack_VerifyNormalizesStatus(t *testing.T) {
	cases := []struct {
		provider string
		want     ChargeStatus
	}{
		{"success", StatusSuccess},
		{"failed", StatusFailed},
		{"abandoned", StatusAbandoned},
		{"pending", StatusPending},
		{"ongoing", StatusPending},
		{"queued", StatusPending},
		{"processing", StatusPending},
		{"reversed", StatusFailed},
		{"SUCCESS", StatusSuccess},
		{"chargeback", StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"status":true,"message":"ok","data":{"status":"`+tc.provider+`","reference":"ref-s","amount":500,"metadata":{"userId":"u1","credits":8,"planId":"8_credits"}}}`)
			})
			res, err := c.Verify(context.Background(), "ref-s")
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if res.Status != tc.want {
				t.Fatalf("status %q -> %q, want %q", tc.provider, res.Status, tc.want)
			}
		})
	}
}

func TestPaystack_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusBadGateway, `oops`, ErrUnavailable},
		{"client error", http.StatusNotFound, `{"status":false,"message":"Transaction reference not found"}`, ErrRejected},
		{"status false", http.StatusOK, `{"status":false,"message":"nope"}`, ErrRejected},
		{"bad json", http.StatusOK, `{`, ErrMalformed},
		{"null data", http.StatusOK, `{"status":true,"data":null}`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Verify(context.Background(), "ref")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPaystack_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c := NewPaystackClient(PaystackConfig{SecretKey: "sk", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Verify(context.Background(), "slow")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestPaystack_BreakerOpensOnRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 5; i++ {
		if _, err := c.Verify(context.Background(), "r"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}
	if c.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", c.BreakerState())
	}

	// Open breaker short-circuits without touching the provider.
	before := hits.Load()
	if _, err := c.Verify(context.Background(), "r"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from open breaker, got %v", err)
	}
	if hits.Load() != before {
		t.Fatalf("provider should not be called while breaker is open")
	}
}

func TestPaystack_RejectionsDoNotOpenBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":false,"message":"Invalid key"}`)
	})
	for i := 0; i < 8; i++ {
		_, _ = c.Verify(context.Background(), "r")
	}
	if c.BreakerState() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %v", c.BreakerState())
	}
}
