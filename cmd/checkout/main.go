package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightmove/checkout/config"
	"github.com/brightmove/checkout/internal/api"
	"github.com/brightmove/checkout/internal/checkout"
	"github.com/brightmove/checkout/internal/logger"
	"github.com/brightmove/checkout/internal/metrics"
	middlewares "github.com/brightmove/checkout/internal/middleware"
	"github.com/brightmove/checkout/internal/pricing"
	"github.com/brightmove/checkout/internal/processor"
	"github.com/brightmove/checkout/internal/webhook"
	"github.com/brightmove/checkout/pkg/utils"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting checkout service",
		"version", Version,
		"build_time", BuildTime,
		"git_commit", GitCommit,
		"frontend_url", cfg.Checkout.FrontendURL,
		"stripe_key", utils.MaskSecret(cfg.Stripe.SecretKey),
		"webhook_secret", utils.MaskSecret(cfg.Stripe.WebhookSecret),
	)

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("Stripe secret key not configured; session creation will fail")
	}
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("Webhook signing secret not configured; all webhook deliveries will be rejected")
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	// Wire components: processor client is constructed once and injected
	stripeClient := processor.NewStripeClient(cfg.Stripe.SecretKey)
	resolver := pricing.NewResolver(pricing.DefaultCatalog())
	checkoutSvc := checkout.NewService(stripeClient, cfg.Checkout.FrontendURL, cfg.Checkout.ProcessorTimeout)
	verifier := webhook.NewVerifier(cfg.Stripe.WebhookSecret)
	events := webhook.NewProcessor()

	// Setup HTTP server
	r := chi.NewRouter()

	// Global middleware. No body-parsing middleware here: the webhook route
	// must see the raw payload bytes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))
	r.Use(middlewares.Security)
	r.Use(middlewares.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middlewares.RateLimit(cfg.RateLimit.RequestsPerMinute))

	apiHandler := api.NewHandler(resolver, checkoutSvc, verifier, events, Version, BuildTime, GitCommit)
	apiHandler.RegisterRoutes(r)

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
