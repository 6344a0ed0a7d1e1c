package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/api"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/router"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// Option adjusts how New wires the server
type Option func(*options)

type options struct {
	hashCost int
}

// WithHashCost sets the bcrypt cost for new passwords
func WithHashCost(cost int) Option {
	return func(o *options) { o.hashCost = cost }
}

// New wires repositories, services and handlers into a server. rdb may be
// nil, which disables rate limiting.
func New(cfg *config.Config, db *gorm.DB, store storage.Storage, rdb *redis.Client, logger *zap.Logger, opts ...Option) *Server {
	o := options{hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	users := service.NewUserService(repository.NewUserRepository(db), service.UserOptions{
		MinPasswordLength: cfg.PasswordMinLength,
		HashCost:          o.hashCost,
	}, logger)
	tokens := service.NewTokenService(users, repository.NewTokenRepository(db), logger)
	tags := service.NewTagService(repository.NewTagRepository(db))
	ingredients := service.NewIngredientService(repository.NewIngredientRepository(db))
	recipes := service.NewRecipeService(repository.NewRecipeRepository(db), tags, ingredients, store, logger)
	images := service.NewImageService(recipes, store, service.ImageOptions{
		MaxBytes:  cfg.MaxUploadBytes,
		MaxPixels: cfg.MaxImagePixels,
	}, logger)

	createLimiter := middleware.NewRecipeCreationRateLimiter(rdb, cfg.RecipeCreateLimit, cfg.RateLimitWindow, logger)
	modifyLimiter := middleware.NewRecipeModificationRateLimiter(rdb, cfg.RecipeModifyLimit, cfg.RateLimitWindow, logger)

	handlers := router.Handlers{
		Users:       api.NewUserHandler(users, tokens, logger),
		Tags:        api.NewTaxonomyHandler(service.ITaxonomyService[models.Tag](tags), "/tags", logger),
		Ingredients: api.NewTaxonomyHandler(service.ITaxonomyService[models.Ingredient](ingredients), "/ingredients", logger),
		Recipes:     api.NewRecipeHandler(recipes, images, createLimiter, modifyLimiter, logger),
		Health: api.NewHealthHandler(func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		}, logger),
	}

	routerOpts := router.Options{CORSOrigins: cfg.CORSOrigins}
	if local, ok := store.(*storage.LocalStorage); ok {
		routerOpts.MediaRoot = local.Root()
		routerOpts.MediaURL = cfg.MediaURL
	}

	engine := router.SetupRouter(handlers, middleware.AuthMiddleware(tokens, logger), routerOpts, logger)

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
