package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cocobubble/storefront/api/controllers"
	"github.com/cocobubble/storefront/api/middleware"
	"github.com/cocobubble/storefront/internal/catalog"
	"github.com/cocobubble/storefront/internal/storefront"
	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/logger"
)

// redisStore is the Redis surface used by the checkout middleware. Pass a
// nil interface, not a nil *redis.Client, when Redis is not configured.
type redisStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope, subject string) string
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, key string) string
}

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Storefront storefront.Service
	Catalog    catalog.Reader
	Redis      redisStore
	Pingers    map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins, cfg.Cart.SessionHeader),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.Checkout.RateLimitWindow,
		cfg.Checkout.RateLimitPerIP,
		cfg.Checkout.RateLimitPerSession,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/promotions", controllers.PromotionsList(deps.Storefront, logg))
		r.Get("/catalog/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Get("/catalog/categories", controllers.CatalogCategories(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart.SessionHeader, logg))

			r.Get("/", controllers.CartGet(deps.Storefront, logg))
			r.Delete("/", controllers.CartClear(deps.Storefront, logg))
			r.Get("/totals", controllers.CartTotals(deps.Storefront, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", controllers.CartAddItem(deps.Storefront, logg))
				r.Patch("/", controllers.CartSetQuantity(deps.Storefront, logg))
				r.Delete("/", controllers.CartRemoveItem(deps.Storefront, logg))
				r.Post("/{index}/increase", controllers.CartIncrease(deps.Storefront, logg))
				r.Post("/{index}/decrease", controllers.CartDecrease(deps.Storefront, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				// Only session creation is throttled; replays still count against the limit.
				var create http.Handler = controllers.CartCheckout(deps.Storefront, logg)
				if deps.Redis != nil {
					create = middleware.Idempotency(deps.Redis, middleware.DefaultIdempotencyTTL, logg)(create)
					create = middleware.RateLimit(checkoutPolicy, deps.Redis, logg)(create)
				}
				r.Method(http.MethodPost, "/", create)
				r.Post("/confirm", controllers.CartCheckoutConfirm(deps.Storefront, logg))
			})
		})
	})

	return r
}
