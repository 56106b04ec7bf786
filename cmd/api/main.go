package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/cocobubble/storefront/api/controllers"
	"github.com/cocobubble/storefront/api/routes"
	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/catalog"
	"github.com/cocobubble/storefront/internal/checkout"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/cocobubble/storefront/internal/storefront"
	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/db"
	"github.com/cocobubble/storefront/pkg/instance"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/metrics"
	"github.com/cocobubble/storefront/pkg/migrate"
	"github.com/cocobubble/storefront/pkg/pubsub"
	"github.com/cocobubble/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront api stopped unexpectedly", err)
		os.Exit(1)
	}
}

// closers collects shutdown hooks and runs them in reverse order.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i]())
	}
	return err
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var cleanup closers
	defer func() {
		if closeErr := cleanup.close(); closeErr != nil {
			logg.Error(context.Background(), "error releasing resources", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewStorefront(registry)

	pingers := map[string]controllers.Pinger{}

	var dbClient *db.Client
	if cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		cleanup.add(dbClient.Close)
		pingers["db"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		cleanup.add(redisClient.Close)
		pingers["redis"] = redisClient
	}

	storage, err := cartStorage(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	var reader catalog.Reader = catalog.NewMemory(nil, nil)
	if dbClient != nil {
		reader = catalog.NewRepository(dbClient.DB())
	}

	index := promotions.NewIndex()
	feed, err := promotionFeed(ctx, cfg, logg, m, dbClient, redisClient, &cleanup, pingers)
	if err != nil {
		return err
	}

	deps := storefront.Dependencies{
		Catalog:      reader,
		FallbackName: cfg.Cart.FallbackName,
		Logger:       logg,
		Metrics:      m,
	}
	if cfg.Checkout.Enabled() {
		client, err := checkout.NewClient(cfg.Checkout.SessionURL,
			checkout.WithTimeout(cfg.Checkout.Timeout),
			checkout.WithVerifyURL(cfg.Checkout.VerifyURL),
		)
		if err != nil {
			return err
		}
		deps.Redirector = client
		deps.Verifier = client
	}

	svc, err := storefront.NewService(storefront.Config{
		Storage:      storage,
		StorageKey:   cfg.Cart.StorageKey,
		Index:        index,
		Dependencies: deps,
	})
	if err != nil {
		return err
	}

	routerDeps := routes.Dependencies{
		Storefront: svc,
		Catalog:    reader,
		Pingers:    pingers,
		Gatherer:   registry,
	}
	if redisClient != nil {
		routerDeps.Redis = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           routes.NewRouter(cfg, logg, routerDeps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if feed != nil {
		g.Go(func() error {
			return promotions.Sync(gctx, feed, index, logg, m)
		})
	}
	g.Go(func() error {
		logg.Info(logg.WithFields(gctx, map[string]any{
			"env":          cfg.App.Env,
			"addr":         server.Addr,
			"instance":     instance.GetID(),
			"cart_storage": cfg.Cart.Backend(),
			"feed":         cfg.Promotions.FeedKind(),
			"checkout":     cfg.Checkout.Enabled(),
		}), "starting storefront api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(shutdownCtx, "shutting down storefront api")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func cartStorage(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (cart.Storage, error) {
	switch cfg.Cart.Backend() {
	case config.CartStorageRedis:
		if redisClient == nil {
			return nil, errors.New("redis cart storage requires a redis client")
		}
		return cart.NewRedisStorage(redisClient, cfg.Cart.TTL), nil
	case config.CartStorageDB:
		if dbClient == nil {
			return nil, errors.New("db cart storage requires a database")
		}
		return cart.NewDBStorage(dbClient.DB()), nil
	default:
		return cart.NewMemoryStorage(), nil
	}
}

// promotionFeed builds the configured feed, wrapping it with the Redis
// snapshot cache when Redis is available. A nil feed leaves the index empty.
func promotionFeed(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	m *metrics.Storefront,
	dbClient *db.Client,
	redisClient *redis.Client,
	cleanup *closers,
	pingers map[string]controllers.Pinger,
) (promotions.Feed, error) {
	var feed promotions.Feed
	switch cfg.Promotions.FeedKind() {
	case config.PromotionsFeedPoll:
		if dbClient == nil {
			return nil, errors.New("polling promotions requires a database")
		}
		polling, err := promotions.NewPollingFeed(promotions.NewRepository(dbClient.DB()), cfg.Promotions.PollInterval, logg, m)
		if err != nil {
			return nil, err
		}
		feed = polling
	case config.PromotionsFeedPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, true, logg)
		if err != nil {
			return nil, err
		}
		cleanup.add(client.Close)
		pingers["pubsub"] = client
		sub, err := promotions.NewPubSubFeed(client.PromotionsSubscription(), logg, m)
		if err != nil {
			return nil, err
		}
		feed = sub
	default:
		return nil, nil
	}

	if redisClient == nil {
		return feed, nil
	}
	cached, err := promotions.NewCachedFeed(feed, redisClient, cfg.Promotions.CacheTTL, logg)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
