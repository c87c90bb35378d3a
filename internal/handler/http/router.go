package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopfront/reviews/internal/config"
	"github.com/shopfront/reviews/internal/identity"
	"github.com/shopfront/reviews/pkg/health"
	"github.com/shopfront/reviews/pkg/middleware"
)

// RouterDeps bundles the handler dependencies for route registration.
type RouterDeps struct {
	Reviews  *ReviewHandler
	Products *ProductHandler
	Health   *health.Handler
	Identity identity.Provider
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(cfg *config.Config, deps RouterDeps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Order matters: recovery outermost, tracing
	// before the request log so the access line carries trace IDs, and
	// identity before it so user_id lands there too.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing())
	r.Use(sessionIdentity(deps.Identity))
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.PrometheusMetrics())

	// Health and operational endpoints.
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Review endpoints. Mutations are rate limited per client IP.
	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/", deps.Reviews.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
			r.Post("/", deps.Reviews.Create)
			r.Patch("/", deps.Reviews.Update)
		})
	})

	// Product page data. Client cache matches the catalog cache TTL so
	// browsers revalidate on the same cadence Redis expires.
	r.Route("/api/products", func(r chi.Router) {
		r.Use(middleware.CacheControl(cfg.CatalogTTL))
		r.Get("/{handle}", deps.Products.Get)
	})

	return r
}

// sessionIdentity resolves the current session's identity and stores the
// user ID in the request context for log enrichment.
func sessionIdentity(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := provider.Current(r.Context()); id != nil {
				r = r.WithContext(middleware.WithUserID(r.Context(), id.ID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
