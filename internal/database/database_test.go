package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/models"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))
	assert.NoError(t, HealthCheck(ctx, db))

	for _, table := range []string{"users", "tokens", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	user := models.User{Email: "test@example.com", EmailKey: "test@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	recipe := models.Recipe{UserID: user.ID, Title: "Soup", TimeMinutes: 10, Price: decimal.RequireFromString("5.50")}
	require.NoError(t, db.Create(&recipe).Error)

	var loaded models.Recipe
	require.NoError(t, db.First(&loaded, recipe.ID).Error)
	assert.Equal(t, "5.50", loaded.Price.StringFixed(2))
}

func TestMigrateRejectsDownOnSQLite(t *testing.T) {
	db, err := Open(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)

	assert.Error(t, Migrate(context.Background(), db, MigrateDown, zap.NewNop()))
}

func TestWaitForDBSkipsSQLite(t *testing.T) {
	assert.NoError(t, WaitForDB(context.Background(), sqliteConfig(t), 1, time.Millisecond, zap.NewNop()))
}

func TestWaitForDBGivesUp(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   config.DriverPostgres,
		DBHost:     "127.0.0.1",
		DBPort:     "1",
		DBUser:     "nobody",
		DBPassword: "x",
		DBName:     "none",
		DBSSLMode:  "disable",
	}
	err := WaitForDB(context.Background(), cfg, 2, time.Millisecond, zap.NewNop())
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), &config.Config{}, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisClientFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), &config.Config{RedisURL: "redis://" + mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
