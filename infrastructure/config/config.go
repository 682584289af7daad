package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backup store variants
const (
	BackupStoreDynamoDB = "dynamodb"
	BackupStoreMemory   = "memory"
	BackupStoreNone     = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Local storage configuration
	DataDir         string
	InMemoryStorage bool

	// Backup store configuration
	BackupStore string
	AWSRegion   string
	BackupTable string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableCORS bool

	// Application identity reported in backup metadata
	AppVersion string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		// Local storage configuration
		DataDir:         getEnv("DATA_DIR", "./data"),
		InMemoryStorage: getEnvBool("IN_MEMORY_STORAGE", false),

		// Backup store configuration
		BackupStore: getEnv("BACKUP_STORE", BackupStoreMemory),
		AWSRegion:   getEnv("AWS_REGION", "us-west-2"),
		BackupTable: getEnv("BACKUP_TABLE", "notevault-backups"),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "notevault"),

		// Logging and features
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),

		AppVersion: getEnv("APP_VERSION", "dev"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.BackupStore {
	case BackupStoreDynamoDB, BackupStoreMemory, BackupStoreNone:
	default:
		return fmt.Errorf("BACKUP_STORE must be one of dynamodb, memory or none, got %q", c.BackupStore)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if !c.InMemoryStorage && c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required in production")
		}
		if c.BackupStore == BackupStoreDynamoDB && c.BackupTable == "" {
			return fmt.Errorf("BACKUP_TABLE is required when BACKUP_STORE is dynamodb")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
