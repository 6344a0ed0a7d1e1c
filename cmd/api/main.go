package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logging"
	"github.com/pageza/recipe-api/backend/internal/server"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

func main() {
	// Initialize configuration
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

	if err := database.WaitForDB(ctx, cfg, 30, 2*time.Second, logger); err != nil {
		logger.Fatal("Database not reachable", zap.Error(err))
	}
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := database.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if rdb == nil {
		logger.Warn("Redis not configured, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Create and start server
	srv := server.New(cfg, db, store, rdb, logger)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Received signal", zap.String("signal", sig.String()))
	}

	// Gracefully shutdown the server
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
