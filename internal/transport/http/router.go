// Package httptransport assembles the HTTP surface: middleware stack, consent
// endpoints, health probes, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"libreconsent/internal/consentlog/handler"
	"libreconsent/internal/platform/health"
	"libreconsent/internal/platform/middleware"
)

// Config wires the router's handlers and policies.
type Config struct {
	Logger  *slog.Logger
	Consent *handler.Handler
	Health  *health.Handler

	// AdminJWTKey signs bearer tokens for the export and purge endpoints;
	// AdminTokenHash is the bcrypt hash of a static operator token accepted
	// as an alternative. Both empty disables the endpoints.
	AdminJWTKey    string
	AdminTokenHash string

	// HideFromBots drops crawler submissions before they reach the pipeline.
	HideFromBots bool
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	cfg.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	admin := middleware.AdminAuth(cfg.AdminJWTKey, cfg.AdminTokenHash, cfg.Logger)
	r.Group(func(r chi.Router) {
		if cfg.HideFromBots {
			r.Use(middleware.BotFilter)
		}
		cfg.Consent.Register(r, admin)
	})

	return r
}
