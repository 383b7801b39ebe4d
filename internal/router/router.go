// Package router assembles the gin engine and its routes.
package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/auth"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/controllers"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Tokens *auth.TokenService
	Images storage.ImageStore
	// RecipeLimiter throttles recipe creation; nil disables it
	RecipeLimiter *middleware.RateLimiter
}

// New builds the engine with every API route registered
func New(deps Deps) *gin.Engine {
	controllers.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), corsMiddleware(deps.Config.CORSOrigins))

	setupRoutes(router, deps)
	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func setupRoutes(router *gin.Engine, deps Deps) {
	db := deps.DB
	userService := services.NewUserService(db)
	recipeService := services.NewRecipeService(db)

	authController := controllers.NewAuthController(deps.Tokens)
	userController := controllers.NewUserController(userService, services.NewFollowService(db), recipeService, deps.Images, deps.Config.PageSize)
	tagController := controllers.NewTagController(services.NewTagService(db))
	ingredientController := controllers.NewIngredientController(services.NewIngredientService(db))
	recipeController := controllers.NewRecipeController(controllers.RecipeDeps{
		Recipes:      recipeService,
		Favorites:    services.NewFavoriteService(db),
		Cart:         services.NewShoppingCartService(db),
		ShoppingList: services.NewShoppingListService(db),
		Images:       deps.Images,
		PageSize:     deps.Config.PageSize,
	})

	requireAuth := middleware.TokenAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api")
	{
		authApi := api.Group("/auth/token")
		{
			authApi.POST("/login", authController.Login)
			authApi.POST("/logout", requireAuth, authController.Logout)
		}

		users := api.Group("/users")
		{
			users.GET("", optionalAuth, userController.ListUsers)
			users.POST("", userController.Register)
			users.GET("/me", requireAuth, userController.Me)
			users.POST("/set_password", requireAuth, userController.SetPassword)
			users.GET("/subscriptions", requireAuth, userController.Subscriptions)
			users.GET("/:id", optionalAuth, userController.GetUser)
			users.POST("/:id/subscribe", requireAuth, userController.Subscribe)
			users.DELETE("/:id/subscribe", requireAuth, userController.Unsubscribe)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", tagController.ListTags)
			tags.GET("/:id", tagController.GetTag)
			tags.POST("", requireAuth, requireAdmin, tagController.CreateTag)
			tags.PATCH("/:id", requireAuth, requireAdmin, tagController.UpdateTag)
			tags.DELETE("/:id", requireAuth, requireAdmin, tagController.DeleteTag)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", ingredientController.ListIngredients)
			ingredients.GET("/:id", ingredientController.GetIngredient)
			ingredients.POST("", requireAuth, requireAdmin, ingredientController.CreateIngredient)
			ingredients.DELETE("/:id", requireAuth, requireAdmin, ingredientController.DeleteIngredient)
		}

		createRecipe := []gin.HandlerFunc{requireAuth}
		if deps.RecipeLimiter != nil {
			createRecipe = append(createRecipe, deps.RecipeLimiter.Middleware())
		}
		createRecipe = append(createRecipe, recipeController.CreateRecipe)

		recipes := api.Group("/recipes")
		{
			recipes.GET("", optionalAuth, recipeController.ListRecipes)
			recipes.POST("", createRecipe...)
			recipes.GET("/download_shopping_cart", requireAuth, recipeController.DownloadShoppingCart)
			recipes.GET("/:id", optionalAuth, recipeController.GetRecipe)
			recipes.PATCH("/:id", requireAuth, recipeController.UpdateRecipe)
			recipes.DELETE("/:id", requireAuth, recipeController.DeleteRecipe)
			recipes.POST("/:id/favorite", requireAuth, recipeController.AddFavorite)
			recipes.DELETE("/:id/favorite", requireAuth, recipeController.RemoveFavorite)
			recipes.POST("/:id/shopping_cart", requireAuth, recipeController.AddToShoppingCart)
			recipes.DELETE("/:id/shopping_cart", requireAuth, recipeController.RemoveFromShoppingCart)
		}
	}

	// Local media is served by the API itself
	if deps.Config.StorageBackend == "local" && strings.HasPrefix(deps.Config.MediaURL, "/") {
		router.Static(deps.Config.MediaURL, deps.Config.MediaRoot)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code, dbStatus := "healthy", http.StatusOK, "up"
		if err := database.Ping(ctx, db); err != nil {
			_ = c.Error(err)
			status, code, dbStatus = "unhealthy", http.StatusServiceUnavailable, "down"
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "gin-foodgram-api",
		})
	}
}
