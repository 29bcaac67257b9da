package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/BorderlessBits/contact-api/internal/config"
	"github.com/BorderlessBits/contact-api/internal/contact"
	"github.com/BorderlessBits/contact-api/internal/delivery"
	"github.com/BorderlessBits/contact-api/internal/events"
	"github.com/BorderlessBits/contact-api/internal/health"
	"github.com/BorderlessBits/contact-api/internal/logger"
	"github.com/BorderlessBits/contact-api/internal/metrics"
	appmw "github.com/BorderlessBits/contact-api/internal/middleware"
	"github.com/BorderlessBits/contact-api/internal/ratelimit"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())

	// A missing email configuration is not fatal: the service still
	// runs, the adapter fails fast, and health reports degraded.
	emailConfigured := true
	if err := cfg.Validate(); err != nil {
		emailConfigured = false
		log.Warn("email provider incomplete, submissions will rely on the form endpoint",
			slog.Any("error", err))
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
	defer limiter.Stop()

	emailProvider := delivery.NewEmailJSProvider(delivery.EmailJSConfig{
		BaseURL:             cfg.EmailJS.BaseURL,
		ServiceID:           cfg.EmailJS.ServiceID,
		TemplateID:          cfg.EmailJS.TemplateID,
		AutoReplyTemplateID: cfg.EmailJS.AutoReplyTemplateID,
		PublicKey:           cfg.EmailJS.PublicKey,
		ToEmail:             cfg.Contact.ToEmail,
	}, nil)

	// Provider priority: the form endpoint when this deployment has one,
	// the email API as fallback.
	providers := []contact.DeliveryProvider{
		delivery.NewFormEndpointProvider(cfg.Contact.FormEndpointURL, cfg.Contact.FormName, nil),
		emailProvider,
	}

	bus := events.NewBus()
	subscribeAuditLog(bus, log)

	service := contact.NewService(contact.ServiceConfig{
		Limiter:   limiter,
		Providers: providers,
		AutoReply: emailProvider,
		Bus:       bus,
		Logger:    log,
		Retry: contact.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		DirectEmail: cfg.Contact.ToEmail,
	})

	contactHandler := contact.NewHandler(service, limiter, log)
	healthHandler := health.NewHandler(health.Config{
		Version:         version,
		EmailConfigured: emailConfigured,
		FormConfigured:  cfg.Contact.FormEndpointURL != "",
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(appmw.StructuredLogger(log))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		contact.RegisterRoutes(r, contactHandler)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("contact API listening", slog.String("addr", addr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down")
	healthHandler.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// subscribeAuditLog records submission lifecycle events so delivery
// history survives in the logs even without a database.
func subscribeAuditLog(bus *events.Bus, log *slog.Logger) {
	bus.Subscribe(events.SubmissionAccepted, func(e events.Event) {
		log.Info("audit: submission accepted",
			slog.String("reference_id", e.ReferenceID),
			slog.String("provider", e.Payload["provider"]))
	})
	bus.Subscribe(events.SubmissionRejected, func(e events.Event) {
		log.Info("audit: submission rejected",
			slog.String("reference_id", e.ReferenceID),
			slog.String("reason", e.Payload["reason"]))
	})
	bus.Subscribe(events.SubmissionFailed, func(e events.Event) {
		log.Error("audit: submission failed after all providers",
			slog.String("reference_id", e.ReferenceID))
	})
}
