package database

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/database/migrations"
	"github.com/pageza/recipe-api/backend/internal/models"
)

// Migration commands accepted by Migrate
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// RunMigrations brings the schema up to date
func RunMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	return Migrate(ctx, db, MigrateUp, log)
}

// Migrate runs a goose command against postgres using the embedded
// migrations. SQLite has no migration history and only supports "up",
// which is served by gorm auto-migration.
func Migrate(ctx context.Context, db *gorm.DB, command string, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		if command != MigrateUp {
			return fmt.Errorf("migration command %q is not supported for sqlite", command)
		}
		log.Info("using gorm auto-migration for sqlite")
		return db.WithContext(ctx).AutoMigrate(models.All()...)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, sqlDB, ".")
	case MigrateDown:
		err = goose.DownContext(ctx, sqlDB, ".")
	case MigrateStatus:
		err = goose.StatusContext(ctx, sqlDB, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migrations complete", zap.String("command", command))
	return nil
}
