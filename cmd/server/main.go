// Command server runs the credits HTTP API.
//
//	@title			Credits Backend API
//	@version		1.0
//	@description	AI generation credits: daily free allowance, purchased credits and payment fulfillment.
//	@BasePath		/api/v1
//
//	@tag.name			Credits
//	@tag.description	Balances, consumption and payment history
//
//	@tag.name			Payments
//	@tag.description	Plan catalog, checkout, verification and provider webhook
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-credits-backend/internal/config"
	"github.com/tbourn/go-credits-backend/internal/gateway"
	httpapi "github.com/tbourn/go-credits-backend/internal/http"
	"github.com/tbourn/go-credits-backend/internal/observability"
	"github.com/tbourn/go-credits-backend/internal/repo"
	"github.com/tbourn/go-credits-backend/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=...".
var version string

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty)
	appVersion := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("enable gorm tracing")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	if cfg.Paystack.SecretKey == "" {
		log.Warn().Msg("PAYSTACK_SECRET_KEY is empty; initialize and verify will be rejected by the provider")
	}
	gw := gateway.NewPaystackClient(gateway.PaystackConfig{
		SecretKey:   cfg.Paystack.SecretKey,
		BaseURL:     cfg.Paystack.BaseURL,
		CallbackURL: cfg.Paystack.CallbackURL,
		Timeout:     cfg.Paystack.Timeout,
	})

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	idem := httpapi.RegisterRoutes(r, db, gw, cfg)
	go idem.RunPurger(ctx, cfg.IdempotencyPurgeInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("db_driver", cfg.DBDriver).
			Int("free_daily_credits", cfg.FreeDailyCredits).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
