// Package services – FulfillmentCoordinator
//
// FulfillmentCoordinator converts provider payment confirmations into
// purchased credits exactly once per payment reference. Two entry points
// feed it: the user-triggered verify (VerifyAndFulfill) and the provider's
// signed webhook (HandleWebhook). Both may fire for the same payment, in any
// order, any number of times.
//
// The transactions table's primary key on reference is the only dedup
// barrier: Fulfill inserts the record and grants the credits in one DB
// transaction, and a conflicting insert turns the call into a successful
// no-op reported as AlreadyProcessed.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-credits-backend/internal/domain"
	"github.com/tbourn/go-credits-backend/internal/gateway"
	"github.com/tbourn/go-credits-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FulfillmentResult describes what a fulfillment call did.
type FulfillmentResult struct {
	Reference string
	// Status is the provider's charge status.
	Status gateway.ChargeStatus
	// Granted is true only for the call that added the credits.
	Granted bool
	// AlreadyProcessed is true when the reference had been fulfilled before.
	AlreadyProcessed bool
	// Ignored is true for webhook events that carry no payment confirmation.
	Ignored        bool
	CreditsGranted int
}

// FulfillmentCoordinator is the only writer of purchased credits.
type FulfillmentCoordinator struct {
	DB            *gorm.DB
	Ledger        *CreditLedger
	Gateway       gateway.Client
	Plans         PlanCatalog
	WebhookSecret string
}

var errAlreadyFulfilled = errors.New("reference already fulfilled")

// Fulfill records the payment and grants its credits, or reports that the
// reference was already fulfilled. The payload must come from a verified
// provider response or an authenticated webhook.
func (f *FulfillmentCoordinator) Fulfill(ctx context.Context, p gateway.ChargePayload, channel domain.Channel) (*FulfillmentResult, error) {
	tr := otel.Tracer("services/FulfillmentCoordinator")
	ctx, span := tr.Start(ctx, "Fulfill",
		trace.WithAttributes(
			attribute.String("payment.reference", p.Reference),
			attribute.String("user.id", p.UserID),
			attribute.String("payment.channel", string(channel)),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx).With().
		Str("reference", p.Reference).
		Str("user_id", p.UserID).
		Str("channel", string(channel)).
		Logger()

	if err := f.validate(&p); err != nil {
		fulfillmentsTotal.WithLabelValues(string(channel), "invalid").Inc()
		lg.Warn().Err(err).Msg("fulfillment payload rejected")
		return nil, err
	}

	row := &domain.Transaction{
		Reference:        p.Reference,
		UserID:           p.UserID,
		PlanID:           p.PlanID,
		CreditsGranted:   p.Credits,
		AmountMinorUnits: p.AmountMinorUnits,
		Status:           domain.TransactionSuccess,
		Channel:          channel,
	}

	err := f.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcome, err := repo.InsertTransaction(ctx, tx, row)
		if err != nil {
			return err
		}
		if outcome == repo.Conflicted {
			return errAlreadyFulfilled
		}
		return f.Ledger.GrantPurchased(ctx, tx, p.UserID, p.Credits)
	})

	res := &FulfillmentResult{Reference: p.Reference, Status: gateway.StatusSuccess}
	switch {
	case errors.Is(err, errAlreadyFulfilled):
		fulfillmentsTotal.WithLabelValues(string(channel), "duplicate").Inc()
		lg.Info().Msg("payment already fulfilled")
		res.AlreadyProcessed = true
		return res, nil
	case err != nil:
		fulfillmentsTotal.WithLabelValues(string(channel), "error").Inc()
		span.RecordError(err)
		lg.Error().Err(err).Msg("fulfillment failed")
		return nil, err
	}

	fulfillmentsTotal.WithLabelValues(string(channel), "granted").Inc()
	lg.Info().Int("credits", p.Credits).Msg("purchased credits granted")
	res.Granted = true
	res.CreditsGranted = p.Credits
	return res, nil
}

// validate normalizes p and checks it against the plan catalog.
func (f *FulfillmentCoordinator) validate(p *gateway.ChargePayload) error {
	p.Reference = strings.TrimSpace(p.Reference)
	p.UserID = strings.TrimSpace(p.UserID)
	p.PlanID = strings.TrimSpace(p.PlanID)

	switch {
	case p.Reference == "":
		return fmt.Errorf("%w: reference is required", ErrValidation)
	case p.UserID == "":
		return fmt.Errorf("%w: metadata.userId is required", ErrValidation)
	case p.Credits <= 0:
		return fmt.Errorf("%w: metadata.credits must be positive", ErrValidation)
	case p.AmountMinorUnits < 0:
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	catalog := f.Plans
	if len(catalog) == 0 {
		catalog = DefaultPlans
	}
	// Credits are only ever granted against a catalog plan.
	plan, ok := catalog.Lookup(p.PlanID)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownPlan, p.PlanID)
	}
	if p.Credits != plan.Credits {
		return fmt.Errorf("%w: plan %s grants %d credits, payload claims %d", ErrValidation, plan.ID, plan.Credits, p.Credits)
	}
	if p.AmountMinorUnits < plan.PriceMinorUnits {
		return fmt.Errorf("%w: plan %s costs %d, paid %d", ErrValidation, plan.ID, plan.PriceMinorUnits, p.AmountMinorUnits)
	}
	return nil
}

// VerifyAndFulfill asks the provider for the charge behind reference and
// fulfills it when the provider reports success. Non-success statuses are
// returned without any state change. A reference that was opened by a user
// other than userID reports ErrPaymentNotFound.
func (f *FulfillmentCoordinator) VerifyAndFulfill(ctx context.Context, userID, reference string) (*FulfillmentResult, error) {
	tr := otel.Tracer("services/FulfillmentCoordinator")
	ctx, span := tr.Start(ctx, "VerifyAndFulfill",
		trace.WithAttributes(
			attribute.String("payment.reference", reference),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	reference = strings.TrimSpace(reference)
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrValidation)
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrValidation)
	}

	// Skip the provider round trip for references we already hold.
	if tx, err := repo.GetTransaction(ctx, f.DB, reference); err == nil {
		if tx.UserID != userID {
			return nil, f.foreignReference(ctx, reference)
		}
		fulfillmentsTotal.WithLabelValues(string(domain.ChannelVerify), "duplicate").Inc()
		return &FulfillmentResult{Reference: reference, Status: gateway.StatusSuccess, AlreadyProcessed: true}, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	vr, err := f.Gateway.Verify(ctx, reference)
	if err != nil {
		span.RecordError(err)
		fulfillmentsTotal.WithLabelValues(string(domain.ChannelVerify), "gateway_error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("reference", reference).Msg("payment verification failed")
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	charge := vr.Charge
	if strings.TrimSpace(charge.UserID) != userID {
		return nil, f.foreignReference(ctx, reference)
	}
	if vr.Status != gateway.StatusSuccess {
		fulfillmentsTotal.WithLabelValues(string(domain.ChannelVerify), "not_paid").Inc()
		return &FulfillmentResult{Reference: reference, Status: vr.Status}, nil
	}

	if charge.Reference == "" {
		charge.Reference = reference
	}
	if charge.Reference != reference {
		return nil, fmt.Errorf("%w: provider returned reference %q for %q", ErrValidation, charge.Reference, reference)
	}
	return f.Fulfill(ctx, charge, domain.ChannelVerify)
}

func (f *FulfillmentCoordinator) foreignReference(ctx context.Context, reference string) error {
	fulfillmentsTotal.WithLabelValues(string(domain.ChannelVerify), "not_owner").Inc()
	zerolog.Ctx(ctx).Warn().Str("reference", reference).Msg("verify for a reference owned by another user")
	return ErrPaymentNotFound
}

// HandleWebhook authenticates and applies a provider push. rawBody must be
// the exact bytes received; they are hashed before any parsing.
func (f *FulfillmentCoordinator) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*FulfillmentResult, error) {
	tr := otel.Tracer("services/FulfillmentCoordinator")
	ctx, span := tr.Start(ctx, "HandleWebhook")
	defer span.End()

	if !gateway.VerifySignature(rawBody, signature, f.WebhookSecret) {
		fulfillmentsTotal.WithLabelValues(string(domain.ChannelWebhook), "unauthenticated").Inc()
		zerolog.Ctx(ctx).Warn().
			Int("body_bytes", len(rawBody)).
			Bool("signature_present", strings.TrimSpace(signature) != "").
			Msg("webhook signature rejected")
		return nil, ErrAuthentication
	}

	ev, err := gateway.ParseWebhookEvent(rawBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	span.SetAttributes(
		attribute.String("webhook.event", ev.Event),
		attribute.String("payment.reference", ev.Data.Reference),
	)

	if ev.Event != gateway.EventChargeSuccess ||
		(ev.Data.Status != "" && ev.Data.Status != gateway.StatusSuccess) {
		fulfillmentsTotal.WithLabelValues(string(domain.ChannelWebhook), "ignored").Inc()
		zerolog.Ctx(ctx).Debug().Str("event", ev.Event).Str("reference", ev.Data.Reference).Msg("webhook event ignored")
		return &FulfillmentResult{Reference: ev.Data.Reference, Status: ev.Data.Status, Ignored: true}, nil
	}

	return f.Fulfill(ctx, ev.Data.Payload(), domain.ChannelWebhook)
}
