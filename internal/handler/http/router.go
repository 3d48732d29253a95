package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/service"
	"github.com/lorenzboss/m306-rate-mate/pkg/health"
	"github.com/lorenzboss/m306-rate-mate/pkg/middleware"
)

// RouterDeps holds everything the router mounts.
type RouterDeps struct {
	Users          *service.UserService
	Aspects        *service.AspectService
	Reviews        *service.ReviewService
	TokenValidator middleware.TokenValidator
	Health         *health.Handler
	Registry       *prometheus.Registry
	AuthLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.NewHTTPMetrics(d.Registry).Handler)
	r.Use(middleware.CORS(d.CORS))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)

	authHandler := NewAuthHandler(d.Users, d.Logger)
	userHandler := NewUserHandler(d.Users, d.Reviews, d.Logger)
	aspectHandler := NewAspectHandler(d.Aspects, d.Logger)
	reviewHandler := NewReviewHandler(d.Reviews, d.Logger)

	elevated := middleware.RequireRole(int(domain.RoleTeamLeader), int(domain.RoleAdmin))
	adminOnly := middleware.RequireRole(int(domain.RoleAdmin))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(requireJSON)

		// Public, throttled per client IP.
		r.Route("/auth", func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Handler)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.TokenValidator))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.Profile)
				r.Get("/directory", userHandler.Directory)

				r.With(adminOnly).Get("/", userHandler.List)
				r.With(adminOnly).Put("/{id}/role", userHandler.ChangeRole)
				r.With(adminOnly).Delete("/{id}", userHandler.Delete)
			})

			r.Route("/aspects", func(r chi.Router) {
				r.Get("/", aspectHandler.List)
				r.With(elevated).Post("/", aspectHandler.Create)
				r.With(elevated).Put("/{id}", aspectHandler.Update)
				r.With(elevated).Delete("/{id}", aspectHandler.Delete)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.List)
				r.Post("/", reviewHandler.Create)
				r.Get("/statistics", reviewHandler.Statistics)
				r.Get("/{id}", reviewHandler.Get)
			})
		})
	})

	return r
}
