package main

import (
	"context"
	"fmt"
	"time"

	_ "github.com/franciscosanchezn/gin-foodgram-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-foodgram-api/internal/auth"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/router"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const tokenPurgeInterval = time.Hour

// @title Foodgram API
// @version 1.0
// @description Recipe sharing API: recipes, tags, ingredients, favorites, shopping lists and subscriptions.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Type "Token" followed by a space and the auth_token returned by /api/auth/token/login.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Load configuration
	configuration := loadConfig()

	// Initialize logger
	setUpLogger(configuration)

	// Initialize database connection
	db := setupDatabase(configuration)

	ctx := context.Background()
	users := services.NewUserService(db)

	tokens := auth.NewTokenService(db, users, configuration.JWTSecret, configuration.OAuthClientID,
		time.Duration(configuration.TokenTTLHours)*time.Hour)
	checkPanicErr(tokens.EnsureClient(ctx))
	go purgeExpiredTokens(ctx, db)

	if configuration.AdminEmail != "" {
		checkPanicErr(users.EnsureAdmin(ctx, configuration.AdminEmail, configuration.AdminPassword))
		log.Infof("Administrator %s is ready", configuration.AdminEmail)
	}

	// Initialize Gin router
	engine := router.New(router.Deps{
		Config:        configuration,
		DB:            db,
		Tokens:        tokens,
		Images:        setupImageStore(ctx, configuration),
		RecipeLimiter: setupRateLimiter(configuration),
	})

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(engine.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter. LOG_LEVEL wins over the
// level derived from APP_ENV and is propagated to every package logger.
func setUpLogger(conf *config.Config) {
	log.SetFormatter(&log.JSONFormatter{})

	level := config.LevelForEnvironment(conf.Environment)
	if parsed, err := log.ParseLevel(conf.LogLevel); err == nil {
		level = parsed
	} else {
		log.Warnf("Invalid LOG_LEVEL %q, using %s", conf.LogLevel, level)
	}

	log.SetLevel(level)
	database.SetLogLevel(level)
	storage.SetLogLevel(level)
	middleware.SetLogLevel(level)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(database.ConfigFrom(conf))
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))
	return db
}

// setupImageStore picks the recipe image backend
func setupImageStore(ctx context.Context, conf *config.Config) storage.ImageStore {
	if conf.StorageBackend == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    conf.S3Bucket,
			Region:    conf.S3Region,
			Endpoint:  conf.S3Endpoint,
			PublicURL: conf.S3PublicURL,
		})
		checkPanicErr(err)
		log.Infof("Storing recipe images in s3 bucket %s", conf.S3Bucket)
		return store
	}

	store, err := storage.NewLocalStore(conf.MediaRoot, conf.MediaURL)
	checkPanicErr(err)
	log.Infof("Storing recipe images under %s", conf.MediaRoot)
	return store
}

// setupRateLimiter connects to redis when configured; without it recipe creation is not throttled
func setupRateLimiter(conf *config.Config) *middleware.RateLimiter {
	if conf.RedisURL == "" {
		log.Info("REDIS_URL not set, recipe creation rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(conf.RedisURL)
	checkPanicErr(err)
	return middleware.NewRecipeCreationRateLimiter(redis.NewClient(opts), conf.RecipeRateLimit)
}

// purgeExpiredTokens periodically removes expired access tokens
func purgeExpiredTokens(ctx context.Context, db *gorm.DB) {
	store := auth.NewGormTokenStore(db)
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.PurgeExpired(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired tokens")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("Purged expired tokens")
			}
		}
	}
}
