package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storedash-backend/api/controllers"
	"github.com/angelmondragon/storedash-backend/api/middleware"
	"github.com/angelmondragon/storedash-backend/internal/auth"
	"github.com/angelmondragon/storedash-backend/internal/categories"
	"github.com/angelmondragon/storedash-backend/internal/dashboard"
	"github.com/angelmondragon/storedash-backend/internal/orders"
	"github.com/angelmondragon/storedash-backend/internal/products"
	"github.com/angelmondragon/storedash-backend/pkg/auth/session"
	"github.com/angelmondragon/storedash-backend/pkg/config"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/db/models"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"github.com/angelmondragon/storedash-backend/pkg/metrics"
	"github.com/angelmondragon/storedash-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// redisStore is the slice of the Redis client the HTTP layer needs.
type redisStore interface {
	db.Pinger
	redis.IdempotencyStore
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type identityResolver interface {
	ResolveSession(ctx context.Context) (*auth.Session, error)
	ResolveTenant(ctx context.Context) (*models.Store, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessionManager sessionManager,
	resolver identityResolver,
	authService auth.Service,
	categoryService categories.Service,
	productService products.Service,
	orderService orders.Service,
	dashboardService dashboard.Service,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]db.Pinger{
			"postgres": dbP,
			"redis":    redisClient,
		}, logg))
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Get("/google/start", controllers.AuthGoogleStart(authService, logg))
		r.With(middleware.AuthRateLimit(signInPolicy, redisClient, logg)).Get("/google/callback", controllers.AuthGoogleCallback(authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Tenant(resolver, logg))

		idempotent := middleware.Idempotency(redisClient, logg)

		r.Get("/me", controllers.Me(resolver, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(categoryService, logg))
			r.With(idempotent).Post("/", controllers.CreateCategory(categoryService, logg))
			r.Get("/{categoryId}", controllers.GetCategory(categoryService, logg))
			r.Patch("/{categoryId}", controllers.UpdateCategory(categoryService, logg))
			r.Delete("/{categoryId}", controllers.DeleteCategory(categoryService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.With(idempotent).Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(orderService, logg))
			r.With(idempotent).Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			r.Patch("/{orderId}", controllers.UpdateOrder(orderService, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(orderService, logg))
		})

		r.Get("/dashboard/summary", controllers.DashboardSummary(dashboardService, logg))
	})

	return r
}
