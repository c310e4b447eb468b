package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/config"
	"github.com/tes-app/tes-backend/internal/storage/postgres"
)

// OpenDB connects to postgres and applies pending migrations when enabled.
func OpenDB(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(postgres.URL(cfg)); err != nil {
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("database migrations applied")
	}

	db, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return db, nil
}
