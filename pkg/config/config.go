package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/featureflags"
	"github.com/aryan0dhankhar/vendoronboard/pkg/database"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	AppBaseURL         string // prefix of invite links, e.g. https://app.example.com
	CORSAllowedOrigins []string

	Database *database.Config
	RedisURL string

	// Notifier selects invite delivery: "log" or "redis"
	Notifier    string
	NotifyQueue string

	// Undelivered invites are retried every NotifyRetryInterval once they are
	// older than NotifyRetryDelay. A zero interval disables redelivery.
	NotifyRetryInterval time.Duration
	NotifyRetryDelay    time.Duration

	JWTSecret  string
	SessionTTL time.Duration

	StoragePath             string
	MaxUploadBytes          int64
	AllowedUploadExtensions []string

	DefaultBusinessName   string
	RejectLateReupload    bool
	ReconcileInterval     time.Duration
	ReconcileGrace        time.Duration
	VendorRateLimit       int
	VendorRateLimitWindow time.Duration
}

// Load reads configuration from environment variables, after merging an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	maxUpload, err := humanize.ParseBytes(getEnv("MAX_UPLOAD_SIZE", "10MB"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}

	reconcileMinutes, err := strconv.Atoi(getEnv("RECONCILE_INTERVAL_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL_MINUTES: %w", err)
	}

	graceMinutes, err := strconv.Atoi(getEnv("RECONCILE_GRACE_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_GRACE_MINUTES: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("VENDOR_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid VENDOR_RATE_LIMIT: %w", err)
	}

	notifyRetryInterval, err := time.ParseDuration(getEnv("NOTIFY_RETRY_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_RETRY_INTERVAL: %w", err)
	}

	notifyRetryDelay, err := time.ParseDuration(getEnv("NOTIFY_RETRY_DELAY", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_RETRY_DELAY: %w", err)
	}

	notifier := getEnv("NOTIFIER", "log")
	if notifier != "log" && notifier != "redis" {
		return nil, fmt.Errorf("invalid NOTIFIER %q: must be log or redis", notifier)
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = os.Getenv("DATABASE_URL")
	dbCfg.Host = getEnv("DB_HOST", dbCfg.Host)
	dbCfg.Port = dbPort
	dbCfg.User = getEnv("DB_USER", dbCfg.User)
	dbCfg.Password = getEnv("DB_PASSWORD", dbCfg.Password)
	dbCfg.Database = getEnv("DB_NAME", dbCfg.Database)
	dbCfg.SSLMode = getEnv("DB_SSLMODE", dbCfg.SSLMode)

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppBaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		Database:                dbCfg,
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379"),
		Notifier:                notifier,
		NotifyQueue:             getEnv("NOTIFY_QUEUE", "vendoronboard:notifications"),
		NotifyRetryInterval:     notifyRetryInterval,
		NotifyRetryDelay:        notifyRetryDelay,
		JWTSecret:               os.Getenv("JWT_SECRET"),
		SessionTTL:              sessionTTL,
		StoragePath:             getEnv("STORAGE_PATH", "./data/vendor-documents"),
		MaxUploadBytes:          int64(maxUpload),
		AllowedUploadExtensions: parseCSVEnv("ALLOWED_UPLOAD_EXTENSIONS", []string{"pdf", "png", "jpg", "jpeg"}),
		DefaultBusinessName:     getEnv("DEFAULT_BUSINESS_NAME", "My Business"),
		RejectLateReupload:      featureflags.Enabled("reject_late_reupload"),
		ReconcileInterval:       time.Duration(reconcileMinutes) * time.Minute,
		ReconcileGrace:          time.Duration(graceMinutes) * time.Minute,
		VendorRateLimit:         rateLimit,
		VendorRateLimitWindow:   time.Minute,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
