package main

import (
	"context"
	"flag"
	"log"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logging"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

type seedRecipe struct {
	title       string
	minutes     int
	price       string
	link        string
	tags        []string
	ingredients []string
}

var demoRecipes = []seedRecipe{
	{"Tomato Soup", 25, "4.50", "", []string{"Vegetarian", "Quick"}, []string{"Tomato", "Onion", "Garlic"}},
	{"Chicken Curry", 45, "9.80", "https://example.com/chicken-curry", []string{"Dinner", "Spicy"}, []string{"Chicken", "Onion", "Garlic", "Rice"}},
	{"Pancakes", 20, "3.25", "", []string{"Breakfast", "Vegetarian"}, []string{"Flour", "Egg", "Milk"}},
	{"Fried Rice", 15, "5.00", "", []string{"Quick", "Dinner"}, []string{"Rice", "Egg", "Onion"}},
}

func main() {
	email := flag.String("email", "demo@example.com", "Email of the demo user")
	password := flag.String("password", "demo12345", "Password of the demo user")
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
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	users := service.NewUserService(repository.NewUserRepository(db), service.UserOptions{
		MinPasswordLength: cfg.PasswordMinLength,
	}, logger)
	tags := service.NewTagService(repository.NewTagRepository(db))
	ingredients := service.NewIngredientService(repository.NewIngredientRepository(db))
	recipes := service.NewRecipeService(repository.NewRecipeRepository(db), tags, ingredients, store, logger)

	user, err := users.CreateUser(ctx, *email, *password, "Demo Cook")
	if err != nil {
		logger.Fatal("Failed to create demo user", zap.Error(err))
	}

	tagIDs := map[string]uint{}
	ingredientIDs := map[string]uint{}
	for _, r := range demoRecipes {
		for _, name := range r.tags {
			if _, ok := tagIDs[name]; ok {
				continue
			}
			tag, err := tags.Create(ctx, user.ID, name)
			if err != nil {
				logger.Fatal("Failed to create tag", zap.String("name", name), zap.Error(err))
			}
			tagIDs[name] = models.Label(*tag).ID
		}
		for _, name := range r.ingredients {
			if _, ok := ingredientIDs[name]; ok {
				continue
			}
			ing, err := ingredients.Create(ctx, user.ID, name)
			if err != nil {
				logger.Fatal("Failed to create ingredient", zap.String("name", name), zap.Error(err))
			}
			ingredientIDs[name] = models.Label(*ing).ID
		}
	}

	for _, r := range demoRecipes {
		price := decimal.RequireFromString(r.price)
		in := service.RecipeInput{
			Title:       r.title,
			TimeMinutes: r.minutes,
			Price:       &price,
			Link:        r.link,
		}
		for _, name := range r.tags {
			in.Tags = append(in.Tags, tagIDs[name])
		}
		for _, name := range r.ingredients {
			in.Ingredients = append(in.Ingredients, ingredientIDs[name])
		}
		recipe, err := recipes.Create(ctx, user.ID, in)
		if err != nil {
			logger.Fatal("Failed to create recipe", zap.String("title", r.title), zap.Error(err))
		}
		logger.Info("Seeded recipe", zap.Uint("id", recipe.ID), zap.String("title", recipe.Title))
	}

	logger.Info("Seeding completed", zap.String("email", user.Email), zap.Int("recipes", len(demoRecipes)))
}
