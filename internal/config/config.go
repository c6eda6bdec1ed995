package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	// StoreDriver selects the notification store: "dynamo", "sqlite" or "postgres".
	StoreDriver    string
	DatabaseURL    string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// IdentityTransport selects the identity RPC transport: "http" or "redis".
	IdentityTransport  string
	IdentityURL        string
	IdentityTimeout    time.Duration
	RedisAddr          string
	RedisPassword      string
	IdentityQueue      string
	LookupConcurrency  int
	ListScope          string
	ListIncludeDeleted bool

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration
	TemplatesDir string // empty uses the embedded templates

	JWTPublicKeyPath string
	AllowedOrigins   []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	Recipients    string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "file:notifications.db?_pragma=busy_timeout(5000)"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Recipients:    getEnv("DYNAMO_TABLE_RECIPIENTS", "recipients"),
		},

		IdentityTransport:  strings.ToLower(getEnv("IDENTITY_TRANSPORT", "http")),
		IdentityURL:        getEnv("IDENTITY_URL", "http://localhost:4000"),
		IdentityTimeout:    getEnvDuration("IDENTITY_TIMEOUT", 5*time.Second),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		IdentityQueue:      getEnv("IDENTITY_QUEUE", "auth:rpc"),
		LookupConcurrency:  getEnvInt("LOOKUP_CONCURRENCY", 8),
		ListScope:          strings.ToLower(getEnv("LIST_SCOPE", "recipient")),
		ListIncludeDeleted: getEnvBool("LIST_INCLUDE_DELETED", false),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "support@fishstat.ru"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),
		TemplatesDir: getEnv("TEMPLATES_DIR", ""),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", ""),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
