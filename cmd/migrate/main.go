package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logging"
)

func main() {
	// Parse command line flags
	command := flag.String("command", database.MigrateUp, "Migration command: up, down or status")
	wait := flag.Bool("wait", false, "Wait for the database to accept connections first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	if *wait {
		if err := database.WaitForDB(ctx, cfg, 30, 2*time.Second, logger); err != nil {
			logger.Fatal("Database not reachable", zap.Error(err))
		}
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(ctx, db, *command, logger); err != nil {
		logger.Fatal("Migration failed", zap.String("command", *command), zap.Error(err))
	}
	logger.Info("Migration finished", zap.String("command", *command))
}
