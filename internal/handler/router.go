package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
	"github.com/aryan0dhankhar/memberledger/internal/security"
	"github.com/aryan0dhankhar/memberledger/internal/security/audit"
	"github.com/aryan0dhankhar/memberledger/internal/security/middleware"
	"github.com/aryan0dhankhar/memberledger/internal/security/ratelimit"
	"github.com/aryan0dhankhar/memberledger/internal/service"
)

// RouterDeps is everything the HTTP surface needs
type RouterDeps struct {
	Auth           *service.AuthService
	Members        *service.MemberService
	Contributions  *service.ContributionService
	Stats          *service.StatsService
	Users          *service.UserService
	Health         *HealthHandler
	Authz          *security.AuthorizationService
	Audit          *audit.Logger
	LoginLimiter   *ratelimit.Limiter
	AllowedOrigins []string
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	Logger         *slog.Logger
}

// NewRouter builds the HTTP surface. /login, health and metrics are public;
// everything else needs a bearer token, and /users needs the admin role.
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if d.Authz == nil {
		d.Authz = security.NewAuthorizationService(log)
	}
	if d.Audit == nil {
		d.Audit = audit.NewLogger(log)
	}

	authHandler := NewAuthHandler(d.Auth, log)
	memberHandler := NewMemberHandler(d.Members, log)
	contributionHandler := NewContributionHandler(d.Contributions, log)
	statsHandler := NewStatsHandler(d.Stats, log)
	userHandler := NewUserHandler(d.Users, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP(d.TrustedProxies))
	r.Use(middleware.AccessLog(log))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if d.Health != nil {
		r.Get("/healthz", d.Health.Health)
		r.Get("/readyz", d.Health.Ready)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ValidateJSONContentType(log))
		if d.LoginLimiter != nil {
			r.Use(middleware.RateLimit(d.LoginLimiter, log))
		}
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Auth, log))
		r.Use(middleware.SanitizeInputs(log))
		r.Use(middleware.Audit(d.Audit))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(d.Authz, d.Audit, domain.RoleAdmin))
			r.Use(middleware.ValidateJSONContentType(log))
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Delete("/{id}", userHandler.Delete)
			r.Put("/{id}/role", userHandler.UpdateRole)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.ValidateJSONContentType(log))

			r.Route("/members", func(r chi.Router) {
				r.Get("/", memberHandler.List)
				r.Post("/", memberHandler.Create)
				r.Get("/count", memberHandler.Count)
				r.Put("/{id}", memberHandler.Update)
				r.Delete("/{id}", memberHandler.Delete)
			})

			r.Route("/contributions", func(r chi.Router) {
				r.Get("/", contributionHandler.List)
				r.Post("/", contributionHandler.Create)
				r.Get("/member/{id}", contributionHandler.ListByMember)
				r.Put("/{id}", contributionHandler.Update)
				r.Delete("/{id}", contributionHandler.Delete)
			})

			r.Get("/stats", statsHandler.ServeHTTP)
		})
	})

	return r
}
