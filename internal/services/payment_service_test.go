package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/tbourn/go-credits-backend/internal/gateway"
)

func TestInitializePayment_Success(t *testing.T) {
	gw := &fakeGateway{}
	s := &PaymentService{Gateway: gw, NewReference: func() string { return "cr_fixed" }}

	intent, err := s.InitializePayment(context.Background(), "u1", "8_credits", " buyer@example.com ")
	if err != nil {
		t.Fatalf("InitializePayment: %v", err)
	}
	if intent.Reference != "cr_fixed" || intent.AuthorizationURL == "" ||
		intent.CreditAmount != 8 || intent.PriceMinorUnits != 500 || intent.UserID != "u1" || intent.PlanID != "8_credits" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	req := gw.initReq
	if req.Email != "buyer@example.com" || req.AmountMinorUnits != 500 || req.Reference != "cr_fixed" {
		t.Fatalf("unexpected gateway request: %+v", req)
	}
	if req.Metadata.UserID != "u1" || req.Metadata.Credits != 8 || req.Metadata.PlanID != "8_credits" {
		t.Fatalf("metadata must carry fulfillment data: %+v", req.Metadata)
	}
}

func TestInitializePayment_GeneratesUniqueReferences(t *testing.T) {
	s := &PaymentService{Gateway: &fakeGateway{}}
	a, err := s.InitializePayment(context.Background(), "u1", "1_credit", "a@b.co")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := s.InitializePayment(context.Background(), "u1", "1_credit", "a@b.co")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.Reference == b.Reference || !strings.HasPrefix(a.Reference, "cr_") {
		t.Fatalf("unexpected references %q, %q", a.Reference, b.Reference)
	}
}

func TestInitializePayment_ValidationBeforeGateway(t *testing.T) {
	cases := []struct {
		name, user, plan, email string
		want                    error
	}{
		{"unknown plan", "u1", "999_credits", "a@b.co", ErrUnknownPlan},
		{"missing email", "u1", "1_credit", " ", ErrValidation},
		{"bad email", "u1", "1_credit", "not-an-email", ErrValidation},
		{"missing user", "", "1_credit", "a@b.co", ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{}
			s := &PaymentService{Gateway: gw}
			_, err := s.InitializePayment(context.Background(), tc.user, tc.plan, tc.email)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if n, _ := gw.calls(); n != 0 {
				t.Fatalf("gateway called %d times", n)
			}
		})
	}
}

func TestInitializePayment_GatewayError(t *testing.T) {
	s := &PaymentService{Gateway: &fakeGateway{initErr: gateway.ErrUnavailable}}
	_, err := s.InitializePayment(context.Background(), "u1", "20_credits", "a@b.co")
	if !errors.Is(err, ErrGateway) || !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrGateway wrapping ErrUnavailable, got %v", err)
	}
}

func TestListPlans_IsACopy(t *testing.T) {
	s := &PaymentService{}
	plans := s.ListPlans()
	if len(plans) != 3 || plans[0].ID != "1_credit" || plans[2].Credits != 20 {
		t.Fatalf("unexpected catalog: %+v", plans)
	}
	plans[0].Credits = 1000
	if DefaultPlans[0].Credits != 1 {
		t.Fatalf("ListPlans leaked the shared catalog")
	}
}

func TestPlanCatalog_Lookup(t *testing.T) {
	if p, ok := DefaultPlans.Lookup(" 20_credits "); !ok || p.PriceMinorUnits != 1000 {
		t.Fatalf("lookup failed: %+v %v", p, ok)
	}
	if _, ok := DefaultPlans.Lookup("nope"); ok {
		t.Fatalf("unexpected hit")
	}
}

func TestPriceFormatter(t *testing.T) {
	f := NewPriceFormatter("usd", language.English)
	if f.Currency() != "USD" {
		t.Fatalf("currency = %q", f.Currency())
	}
	if got := f.Format(500); !strings.Contains(got, "5.00") {
		t.Fatalf("Format(500) = %q, want it to contain 5.00", got)
	}

	fallback := NewPriceFormatter("???", language.English)
	if fallback.Currency() != "NGN" {
		t.Fatalf("fallback currency = %q", fallback.Currency())
	}
}

func TestPriceFormatter_MinorUnitScale(t *testing.T) {
	cases := []struct {
		code      string
		wantScale int
		minor     int64
		want      string
	}{
		{"NGN", 2, 100000, "1,000.00"},
		{"USD", 2, 1999, "19.99"},
		{"JPY", 0, 500, "500"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			f := NewPriceFormatter(tc.code, language.English)
			if f.scale != tc.wantScale {
				t.Fatalf("scale = %d, want %d", f.scale, tc.wantScale)
			}
			got := f.Format(tc.minor)
			if !strings.HasSuffix(got, " "+tc.want) {
				t.Fatalf("Format(%d) = %q, want suffix %q", tc.minor, got, tc.want)
			}
		})
	}
}
