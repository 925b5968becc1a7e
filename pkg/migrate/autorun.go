package migrate

import (
	"context"
	"fmt"

	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/db"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Feature.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
