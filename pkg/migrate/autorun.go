package migrate

import (
	"context"
	"fmt"

	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/db"
	"github.com/cocobubble/storefront/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev
// with STOREFRONT_AUTO_MIGRATE enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.App.IsDev() || !cfg.App.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := NewMigrator(sqlDB, cfg.DB.DriverName(), Source(""))
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", applied), "migrate.dev_autorun.completed")
	return nil
}
