// Package api assembles the HTTP gateway.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/coachgate/internal/api/handler"
	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// Services are the use cases served by the gateway.
type Services struct {
	Auth         usecase.AuthService
	Videos       usecase.VideoService
	Capabilities usecase.CapabilityService
	Coaches      usecase.CoachService
	Pricing      usecase.PricingService
	Users        usecase.UserService
	Audit        usecase.AuditLog
}

// RouterConfig holds the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger *slog.Logger
	// RateLimiter guards /login and /get-upload-url. Nil disables limiting.
	RateLimiter middleware.RateLimiter
	// HealthChecks are reported by /health.
	HealthChecks map[string]handler.Pinger
	// Metrics serves /metrics. Defaults to the Prometheus default registry.
	Metrics http.Handler
}

// NewRouter builds the chi router with every gateway route.
func NewRouter(svc Services, cfg RouterConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}

	authH := handler.NewAuthHandler(svc.Auth)
	videoH := handler.NewVideoHandler(svc.Videos)
	capH := handler.NewCapabilityHandler(svc.Capabilities)
	coachH := handler.NewCoachHandler(svc.Coaches)
	pricingH := handler.NewPricingHandler(svc.Pricing)
	userH := handler.NewUserHandler(svc.Users)
	logsH := handler.NewLogsHandler(svc.Audit)
	healthH := handler.NewHealthHandler(cfg.HealthChecks)

	authenticate := middleware.Authenticate(svc.Auth)
	coachOnly := chi.Chain(authenticate, middleware.RequireRole(middleware.RoleCoach))
	adminOnly := chi.Chain(authenticate, middleware.RequireRole(middleware.RoleAdmin))
	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limited = middleware.RateLimit(cfg.RateLimiter)
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Metrics)

	r.Get("/health", healthH.Health)

	r.With(limited).Post("/login", authH.Login)
	r.With(authenticate).Get("/auth/verify", authH.Verify)

	r.With(limited, middleware.OptionalAuthenticate(svc.Auth)).Post("/get-upload-url", capH.UploadURL)
	r.With(adminOnly...).Post("/get-coach-image-upload-url", capH.CoachImageURL)

	r.Group(func(r chi.Router) {
		r.Use(coachOnly...)
		r.Get("/list-files", videoH.List)
		r.Post("/delete-file", videoH.Delete)
		r.Post("/rename-file", videoH.Rename)
		r.Get("/get-notes", videoH.GetNotes)
		r.Post("/save-notes", videoH.SaveNotes)
		r.Get("/get-download-url", videoH.DownloadURL)
	})

	r.Route("/manage-coaches", func(r chi.Router) {
		r.Get("/", coachH.List)
		r.With(adminOnly...).Post("/", coachH.Create)
		r.With(adminOnly...).Put("/", coachH.Update)
		r.With(adminOnly...).Delete("/", coachH.Delete)
	})

	r.Route("/manage-pricing", func(r chi.Router) {
		r.Get("/", pricingH.List)
		r.With(adminOnly...).Post("/", pricingH.Create)
		r.With(adminOnly...).Put("/", pricingH.Update)
		r.With(adminOnly...).Delete("/", pricingH.Delete)
	})

	r.Route("/manage-users", func(r chi.Router) {
		r.Use(adminOnly...)
		r.Get("/", userH.List)
		r.Post("/", userH.Create)
		r.Put("/", userH.Update)
		r.Delete("/", userH.Delete)
	})

	r.With(adminOnly...).Get("/logs", logsH.List)
	r.With(adminOnly...).Handle("/metrics", cfg.Metrics)

	return r
}
