package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Databricks DatabricksConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Policy     PolicyConfig
	Scan       ScanConfig
	Logging    LoggingConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Environment     string
}

// DatabricksConfig contains workspace API connection settings. AccountID
// is optional; without it budget policy management is disabled.
type DatabricksConfig struct {
	Host           string // workspace URL, e.g. https://adb-123.4.azuredatabricks.net
	Token          string // personal access token
	AccountHost    string // account console URL
	AccountID      string // account ID for account-level APIs
	Timeout        time.Duration
	RatePerSecond  float64
	RateBurst      int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// DatabaseConfig contains scan history database configuration
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig contains API authentication configuration. When APIKey is
// empty the API runs unauthenticated.
type AuthConfig struct {
	APIKey            string
	JWTSecret         string
	AccessTokenExpiry time.Duration
}

// PolicyConfig locates the required-tag policy file
type PolicyConfig struct {
	Path string
}

// ScanConfig controls the scheduled compliance scanner
type ScanConfig struct {
	Enabled  bool
	Schedule string // cron expression
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Databricks: DatabricksConfig{
			Host:           getEnv("DATABRICKS_HOST", ""),
			Token:          getEnv("DATABRICKS_TOKEN", ""),
			AccountHost:    getEnv("DATABRICKS_ACCOUNT_HOST", "https://accounts.cloud.databricks.com"),
			AccountID:      getEnv("DATABRICKS_ACCOUNT_ID", ""),
			Timeout:        getEnvAsDuration("DATABRICKS_TIMEOUT", 30*time.Second),
			RatePerSecond:  getEnvAsFloat("DATABRICKS_RATE_PER_SECOND", 10),
			RateBurst:      getEnvAsInt("DATABRICKS_RATE_BURST", 20),
			MaxRetries:     getEnvAsInt("DATABRICKS_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("DATABRICKS_RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Database: DatabaseConfig{
			Path:         getEnv("DB_PATH", "./lakespend.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			APIKey:            getEnv("API_KEY", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", time.Hour),
		},
		Policy: PolicyConfig{
			Path: getEnv("POLICY_PATH", ""),
		},
		Scan: ScanConfig{
			Enabled:  getEnvAsBool("SCAN_ENABLED", false),
			Schedule: getEnv("SCAN_SCHEDULE", "0 * * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Databricks.Host == "" {
		return fmt.Errorf("DATABRICKS_HOST must be set")
	}
	if c.Databricks.Token == "" {
		return fmt.Errorf("DATABRICKS_TOKEN must be set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.APIKey != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when API_KEY is configured")
	}

	if c.Databricks.RatePerSecond <= 0 {
		return fmt.Errorf("DATABRICKS_RATE_PER_SECOND must be positive")
	}

	return nil
}

// AuthEnabled reports whether the API requires authentication
func (c *Config) AuthEnabled() bool {
	return c.Auth.APIKey != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
