package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/api"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/models"
)

// Handlers groups the API handlers mounted by SetupRouter
type Handlers struct {
	Users       *api.UserHandler
	Tags        *api.TaxonomyHandler[models.Tag]
	Ingredients *api.TaxonomyHandler[models.Ingredient]
	Recipes     *api.RecipeHandler
	Health      *api.HealthHandler
}

// Options configures the engine around the handlers
type Options struct {
	CORSOrigins []string
	// MediaRoot is served under MediaURL when set
	MediaRoot string
	MediaURL  string
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, auth gin.HandlerFunc, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method \"" + c.Request.Method + "\" not allowed."})
	})

	router.GET("/health", h.Health.HealthCheck)
	if opts.MediaRoot != "" {
		router.Static(opts.MediaURL, opts.MediaRoot)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	h.Users.RegisterRoutes(v1, auth)

	// Protected routes
	protected := v1.Group("")
	protected.Use(auth)
	{
		h.Tags.RegisterRoutes(protected)
		h.Ingredients.RegisterRoutes(protected)
		h.Recipes.RegisterRoutes(protected)
	}

	return router
}
