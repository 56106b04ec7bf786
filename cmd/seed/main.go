package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/cocobubble/storefront/internal/catalog"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/db"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "storefront-seed"})

	_ = godotenv.Load()

	productsPath := flag.String("products", "seeds/products.json", "catalog seed file (JSON array)")
	promotionsPath := flag.String("promotions", "seeds/promotions.json", "promotion seed file (JSON array), empty to skip")
	publish := flag.Bool("publish", false, "publish the promotion listing to the promotions topic after writing")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront-seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "products": *productsPath, "promotions": *promotionsPath})

	products, err := loadProducts(ctx, logg, *productsPath)
	requireResource(ctx, logg, "products seed", err)

	var promos []promotions.Promotion
	if *promotionsPath != "" {
		data, err := os.ReadFile(*promotionsPath)
		requireResource(ctx, logg, "promotions seed", err)
		promos, err = promotions.DecodeSnapshot(data)
		requireResource(ctx, logg, "promotions seed", err)
	}

	if cfg.DB.DSN == "" {
		fmt.Fprintln(os.Stderr, "STOREFRONT_DB_DSN is required")
		os.Exit(1)
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	catalogRepo := catalog.NewRepository(dbClient.DB())
	promoRepo := promotions.NewRepository(dbClient.DB())

	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := catalogRepo.UpsertProducts(ctx, tx, products); err != nil {
			return err
		}
		return promoRepo.Upsert(ctx, tx, promos)
	})
	requireResource(ctx, logg, "seed transaction", err)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"products_written":   len(products),
		"promotions_written": len(promos),
	}), "seed.completed")

	if !*publish {
		return
	}

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, false, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer client.Close()

	publisher, err := promotions.NewSnapshotPublisher(client.PromotionsPublisher())
	requireResource(ctx, logg, "promotions publisher", err)

	// Publish what the feed would list, not the raw seed file.
	listed, err := promoRepo.List(ctx)
	requireResource(ctx, logg, "promotions listing", err)

	id, err := publisher.Publish(ctx, listed)
	requireResource(ctx, logg, "promotions publish", err)
	logg.Info(logg.WithFields(ctx, map[string]any{"message_id": id, "count": len(listed)}), "seed.promotions.published")
}

func loadProducts(ctx context.Context, logg *logger.Logger, path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	products, rejected, err := catalog.ParseSeed(f)
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"index":  r.Index,
			"name":   r.Name,
			"reason": r.Reason,
		}), "seed.product.skipped")
	}
	return products, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
