package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnvironment maps APP_ENV to a logrus level
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		// Default to info level for other environments
		return logrus.InfoLevel
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment string `json:"environment"`
	Port        int    `json:"port"`
	Host        string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
	OAuthClientID string `json:"oauth_client_id"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	// Media storage
	StorageBackend string `json:"storage_backend"`
	MediaRoot      string `json:"media_root"`
	MediaURL       string `json:"media_url"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3Endpoint     string `json:"s3_endpoint"`
	S3PublicURL    string `json:"s3_public_url"`

	// Rate limiting, disabled when RedisURL is empty
	RedisURL        string `json:"redis_url"`
	RecipeRateLimit int    `json:"recipe_rate_limit"`

	// HTTP
	CORSOrigins []string `json:"cors_origins"`
	PageSize    int      `json:"page_size"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DBPath: %s, LogLevel: %s, JWTSecret: [REDACTED], StorageBackend: %s, S3Bucket: %s, RedisURL: %s, PageSize: %d}",
		c.Environment, c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.DBPath, c.LogLevel,
		c.StorageBackend, c.S3Bucket, maskURL(c.RedisURL), c.PageSize)
}

// maskURL hides everything between the scheme and the host, where credentials live
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	schemeEnd := strings.Index(raw, "://")
	at := strings.LastIndex(raw, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return raw
	}
	return raw[:schemeEnd+3] + "[REDACTED]" + raw[at:]
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any variable has an invalid format
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	ttl, err := strconv.Atoi(GetEnvWithDefault("TOKEN_TTL_HOURS", "24"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %q", os.Getenv("TOKEN_TTL_HOURS"))
	}

	pageSize, err := strconv.Atoi(GetEnvWithDefault("PAGE_SIZE", "6"))
	if err != nil || pageSize <= 0 {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %q", os.Getenv("PAGE_SIZE"))
	}

	driver := strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" && driver != "postgresql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s (supported: postgres, sqlite)", driver)
	}

	backend := strings.ToLower(GetEnvWithDefault("STORAGE_BACKEND", "local"))
	if backend != "local" && backend != "s3" {
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %s (supported: local, s3)", backend)
	}

	config := &Config{
		Environment:     GetEnvWithDefault("APP_ENV", "development"),
		Port:            port,
		Host:            GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:        driver,
		DBHost:          GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:          GetEnvWithDefault("DB_PORT", "5432"),
		DBName:          GetEnvWithDefault("DB_NAME", "foodgram"),
		DBUser:          GetEnvWithDefault("DB_USER", "foodgram"),
		DBPassword:      GetEnvWithDefault("DB_PASSWORD", "foodgram"),
		DBSSLMode:       GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:          GetEnvWithDefault("DB_PATH", "foodgram.sqlite"),
		LogLevel:        GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:       GetEnvWithDefault("JWT_SECRET", "secret"),
		TokenTTLHours:   ttl,
		OAuthClientID:   GetEnvWithDefault("OAUTH_CLIENT_ID", "foodgram-web"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		StorageBackend:  backend,
		MediaRoot:       GetEnvWithDefault("MEDIA_ROOT", "media"),
		MediaURL:        strings.TrimRight(GetEnvWithDefault("MEDIA_URL", "/media"), "/"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        GetEnvWithDefault("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RecipeRateLimit: GetEnvAsType("RECIPE_RATE_LIMIT", 30),
		CORSOrigins:     splitList(GetEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
		PageSize:        pageSize,
	}

	if config.StorageBackend == "s3" && config.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
