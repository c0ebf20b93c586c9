package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Paystack API root.
const DefaultBaseURL = "https://api.paystack.co"

// PaystackConfig configures PaystackClient.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration

	// HTTPClient overrides the transport (tests). Optional.
	HTTPClient *http.Client
}

// PaystackClient implements Client against the Paystack REST API. Every call
// carries a bounded timeout and passes through a circuit breaker, so an
// unhealthy provider fails fast with ErrUnavailable.
type PaystackClient struct {
	secret      string
	baseURL     string
	callbackURL string
	timeout     time.Duration
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

var _ Client = (*PaystackClient)(nil)

// NewPaystackClient builds a client. Zero values fall back to
// DefaultBaseURL and a 10s timeout.
func NewPaystackClient(cfg PaystackConfig) *PaystackClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	settings := gobreaker.Settings{
		Name:        "paystack",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A refusal from a healthy provider must not open the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},
	}

	return &PaystackClient{
		secret:      cfg.SecretKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		timeout:     cfg.Timeout,
		http:        hc,
		breaker:     gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// BreakerState exposes the circuit state for health reporting.
func (c *PaystackClient) BreakerState() gobreaker.State { return c.breaker.State() }

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeBody struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Initialize opens a charge and returns the hosted checkout URL.
func (c *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*PaymentIntent, error) {
	ctx, span := otel.Tracer("gateway/Paystack").Start(ctx, "Initialize",
		trace.WithAttributes(attribute.String("payment.reference", req.Reference)),
	)
	defer span.End()

	body, err := json.Marshal(initializeBody{
		Email:       req.Email,
		Amount:      req.AmountMinorUnits,
		Reference:   req.Reference,
		CallbackURL: c.callbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var data initializeData
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization_url", ErrMalformed)
	}
	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &PaymentIntent{
		PlanID:           req.Metadata.PlanID,
		CreditAmount:     int(req.Metadata.Credits),
		PriceMinorUnits:  req.AmountMinorUnits,
		UserID:           req.Metadata.UserID,
		Reference:        ref,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

// Verify looks a charge up by reference.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	ctx, span := otel.Tracer("gateway/Paystack").Start(ctx, "Verify",
		trace.WithAttributes(attribute.String("payment.reference", reference)),
	)
	defer span.End()

	var data ChargeData
	if err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		span.RecordError(err)
		return nil, err
	}
	p := data.Payload()
	if p.Reference == "" {
		p.Reference = reference
	}
	return &VerifyResult{Status: data.Status.Normalize(), Charge: p}, nil
}

// call performs one request through the breaker and decodes the envelope's
// data field into out.
func (c *PaystackClient) call(ctx context.Context, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !env.Status {
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrMalformed)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, env.Message)
	}
	return raw, nil
}
