// Package services – PaymentService
//
// PaymentService turns a plan choice into a provider checkout session. It
// validates the plan and email before any network call, generates the
// payment reference locally, and stamps the user id, plan id and credit
// amount into the charge metadata so that the FulfillmentCoordinator can
// later grant credits from the provider's confirmation alone.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/tbourn/go-credits-backend/internal/gateway"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PaymentService starts purchases.
type PaymentService struct {
	Gateway gateway.Client
	Plans   PlanCatalog

	// NewReference overrides reference generation (tests). Optional.
	NewReference func() string
}

// ListPlans returns the catalog in display order.
func (s *PaymentService) ListPlans() []Plan {
	out := make([]Plan, len(s.catalog()))
	copy(out, s.catalog())
	return out
}

func (s *PaymentService) catalog() PlanCatalog {
	if len(s.Plans) == 0 {
		return DefaultPlans
	}
	return s.Plans
}

func (s *PaymentService) reference() string {
	if s.NewReference != nil {
		return s.NewReference()
	}
	return "cr_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// InitializePayment opens a checkout for planID on behalf of userID.
// Unknown plans and invalid emails fail with ErrValidation before the
// provider is contacted; provider failures are wrapped in ErrGateway.
func (s *PaymentService) InitializePayment(ctx context.Context, userID, planID, email string) (*gateway.PaymentIntent, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "InitializePayment",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("plan.id", planID),
		),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	plan, ok := s.catalog().Lookup(planID)
	if !ok {
		return nil, ErrUnknownPlan
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	ref := s.reference()
	span.SetAttributes(attribute.String("payment.reference", ref))

	intent, err := s.Gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:            email,
		AmountMinorUnits: plan.PriceMinorUnits,
		Reference:        ref,
		Metadata: gateway.Metadata{
			UserID:  userID,
			Credits: gateway.FlexInt(plan.Credits),
			PlanID:  plan.ID,
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	intent.PlanID = plan.ID
	intent.CreditAmount = plan.Credits
	intent.PriceMinorUnits = plan.PriceMinorUnits
	intent.UserID = userID
	if intent.Reference == "" {
		intent.Reference = ref
	}
	return intent, nil
}
