// Package httpapi wires the HTTP transport (Gin) to the credit ledger,
// payment and fulfillment services, middleware, and route handlers. It
// centralizes cross-cutting concerns such as tracing, correlation IDs,
// caller identity, logging/redaction, panic recovery, compression, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → identity → logging → recovery)
//   - Deterministic router setup; all dependencies injected
//   - The provider webhook is never throttled
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-credits-backend/docs" // swagger docs
	"github.com/tbourn/go-credits-backend/internal/config"
	"github.com/tbourn/go-credits-backend/internal/gateway"
	"github.com/tbourn/go-credits-backend/internal/http/handlers"
	"github.com/tbourn/go-credits-backend/internal/http/middleware"
	"github.com/tbourn/go-credits-backend/internal/services"
)

var (
	corsAllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderUserID,
		middleware.HeaderIdempotencyKey,
		handlers.HeaderSignature,
		handlers.HeaderPaystackSignature,
		"If-None-Match",
	}
	corsExposeHeaders = []string{
		"X-Request-ID", "Content-Length", "ETag",
		handlers.HeaderIdempotencyReplayed,
	}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the idempotency service so the caller can run its
// background purger.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller from X-User-ID
//  4. ContextLogger: request-scoped zerolog logger on the request context
//  5. RedactingLogger: access log with secret scrubbing
//  6. Recovery: capture panics after logger
//  7. Gzip and body size limiter
//  8. Metrics
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user/IP, bypass on replay, webhook exempt)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw gateway.Client, cfg config.Config) *services.IdempotencyService {
	r.HandleMethodNotAllowed = true

	// Dependency injection: services ← repo/db/gateway
	ledger := &services.CreditLedger{
		DB: db,
		Policy: services.ResetPolicy{
			Allowance: cfg.FreeDailyCredits,
			Location:  cfg.ResetLocation(),
		},
	}
	paySvc := &services.PaymentService{Gateway: gw, Plans: services.DefaultPlans}
	fulfiller := &services.FulfillmentCoordinator{
		DB:            db,
		Ledger:        ledger,
		Gateway:       gw,
		Plans:         services.DefaultPlans,
		WebhookSecret: cfg.Paystack.WebhookSecret,
	}
	txSvc := &services.TransactionService{DB: db}
	idemSvc := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL}

	h := handlers.New(handlers.Services{
		Credits:      ledger,
		Payments:     paySvc,
		Fulfillment:  fulfiller,
		Transactions: txSvc,
		Idempotency:  idemSvc,
		Prices:       services.NewPriceFormatter(cfg.Currency, language.English),
	})

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	webhookRoute := path.Join(prefixOrRoot(apiBase), "payments/webhook")

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity
	r.Use(middleware.Identity())

	// 4) Request-scoped logger for services
	r.Use(middleware.ContextLogger())

	// 5) Access log with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 6) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 7) Compression and global body size limit (1 MiB)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(limitBody(1 << 20))

	// 8) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		idemSvc.Exists,
	))

	// 10) Token-bucket rate limiter per user/IP; provider retries are not throttled
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		SkipRoutes(webhookRoute)
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	// Public API. Balances and payment outcomes must never be cached.
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.PrivateResponses())
	{
		// Catalog and purchases
		api.GET("/plans", h.ListPlans)
		api.POST("/payments/initialize", h.InitializePayment)
		api.GET("/payments/verify/:reference", h.VerifyPayment)
		api.POST("/payments/webhook", h.PaymentWebhook)

		// Ledger
		api.GET("/credits", h.GetCredits)
		api.POST("/credits/consume", h.ConsumeCredit)
		api.GET("/transactions", h.ListTransactions)
	}

	return idemSvc
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func prefixOrRoot(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}
