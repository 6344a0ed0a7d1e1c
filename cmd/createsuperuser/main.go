package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logging"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/service"
)

func main() {
	email := flag.String("email", "", "Email address of the new superuser")
	password := flag.String("password", os.Getenv("SUPERUSER_PASSWORD"), "Password, defaults to $SUPERUSER_PASSWORD")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	users := service.NewUserService(repository.NewUserRepository(db), service.UserOptions{
		MinPasswordLength: cfg.PasswordMinLength,
	}, logger)
	user, err := users.CreateSuperuser(context.Background(), *email, *password)
	if err != nil {
		logger.Fatal("Failed to create superuser", zap.Error(err))
	}
	logger.Info("Superuser created", zap.Uint("id", user.ID), zap.String("email", user.Email))
}
