package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/middleware"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps wires handlers and middleware into the HTTP API
type RouterDeps struct {
	Auth         *AuthHandler
	Vendors      *VendorHandler
	Onboarding   *OnboardingHandler
	Documents    *DocumentHandler
	Health       *HealthHandler
	TokenManager *auth.TokenManager
	VendorLimit  *ratelimit.Limiter
	CORSOrigins  []string
	Logger       *slog.Logger
}

// NewRouter builds the route table:
//
//	public:   /api/auth/*, /healthz, /readyz, /metrics
//	business: /api/vendors/*, /api/documents/* (bearer session)
//	vendor:   /api/onboard/{token}/* (invite token, rate limited per client IP)
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(log))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.SanitizeInputs(log))

	r.Get("/healthz", d.Health.Health)
	r.Get("/readyz", d.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireContentType(log, "application/json"))
			r.Post("/auth/register", d.Auth.Register)
			r.Post("/auth/login", d.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTMiddleware(d.TokenManager, log))
			r.Use(middleware.RequireContentType(log, "application/json"))
			r.Post("/vendors/invite", d.Vendors.Invite)
			r.Get("/vendors", d.Vendors.List)
			r.Get("/vendors/{id}", d.Vendors.Detail)
			r.Post("/vendors/{id}/approve", d.Vendors.Approve)
			r.Get("/documents/{id}/download", d.Documents.Download)
		})

		r.Route("/onboard/{token}", func(r chi.Router) {
			if d.VendorLimit != nil {
				r.Use(middleware.RateLimitMiddleware(d.VendorLimit, log))
			}
			r.Get("/", d.Onboarding.Show)
			r.With(middleware.RequireContentType(log, "multipart/form-data")).
				Post("/documents/{type}", d.Onboarding.Upload)
			r.Post("/submit", d.Onboarding.Submit)
		})
	})

	return r
}
