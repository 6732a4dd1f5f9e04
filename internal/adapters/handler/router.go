package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reservaespacios/reservation-service/internal/adapters/middleware"
	"github.com/reservaespacios/reservation-service/internal/core/domain"
)

// RouterConfig carries the handlers and cross-cutting settings of the API.
type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Reservations *ReservationHandler
	Catalog      *CatalogHandler
	Health       *HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	AllowedOrigins []string
	LoginRateLimit float64
	LoginRateBurst int
	// TrustProxy takes the client address from forwarded headers.
	TrustProxy bool
	Logger     *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	credentialLimit := middleware.LoginRateLimit(cfg.LoginRateLimit, cfg.LoginRateBurst, cfg.Logger)

	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.Health.Health)
	r.Get("/health/live", cfg.Health.Health)
	r.Get("/health/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.With(credentialLimit).Post("/auth/login", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.Authenticate)

			r.Post("/auth/logout", cfg.Auth.Logout)
			r.With(credentialLimit).Post("/auth/change-password", cfg.Auth.ChangePassword)
			r.Get("/auth/me", cfg.Auth.Me)

			r.Route("/reservas", func(r chi.Router) {
				r.Get("/", cfg.Reservations.List)
				r.Post("/", cfg.Reservations.Create)
				r.Get("/{id}", cfg.Reservations.Get)
				r.Put("/{id}", cfg.Reservations.Update)
				r.Patch("/{id}", cfg.Reservations.Update)
				r.Delete("/{id}", cfg.Reservations.Delete)
			})

			r.Get("/espacios", cfg.Catalog.Spaces)
			r.Get("/espacios/{id}", cfg.Catalog.Space)
			r.Get("/organizaciones", cfg.Catalog.Organizations)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))

				r.Route("/usuarios", func(r chi.Router) {
					r.Get("/", cfg.Users.List)
					r.Post("/", cfg.Users.Create)
					r.Get("/{id}", cfg.Users.Get)
					r.Put("/{id}", cfg.Users.Update)
					r.Patch("/{id}", cfg.Users.Update)
					r.Delete("/{id}", cfg.Users.Delete)
					r.Post("/{id}/reset-password", cfg.Users.ResetPassword)
				})

				r.Get("/notificaciones/fallos", cfg.Users.NotificationFailures)
			})
		})
	})

	return r
}
