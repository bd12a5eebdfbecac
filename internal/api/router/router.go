// Package router assembles the public HTTP surface: Twilio webhooks, the
// admin booking-settings API, health, and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coverlinehq/coverline/internal/http/handlers"
	httpmiddleware "github.com/coverlinehq/coverline/internal/http/middleware"
	"github.com/coverlinehq/coverline/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	TwilioWebhooks  *handlers.TwilioWebhookHandler
	AdminBooking    *handlers.AdminBookingHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.TwilioWebhooks != nil {
		r.Route("/webhooks/twilio", func(wh chi.Router) {
			wh.Post("/sms", cfg.TwilioWebhooks.HandleInbound)
			wh.Post("/status", cfg.TwilioWebhooks.HandleStatus)
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AdminBooking != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/agents/{agentID}", func(agent chi.Router) {
				agent.Get("/booking-settings", cfg.AdminBooking.GetSettings)
				agent.Put("/booking-settings", cfg.AdminBooking.PutSettings)
			})
		})
	}

	return r
}
