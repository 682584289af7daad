package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Shadow snapshot constraints
	MaxShadowsPerKey      int
	RepairShadowRetention int

	// Category constraints
	DefaultCategoryID    string
	DefaultCategoryName  string
	DefaultCategoryColor string

	// Note constraints
	LabelMaxLength   int
	MaxContentLength int

	// Backup constraints
	BackupVersion  string
	StaleBackupAge time.Duration
	MaxBackupsKept int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Shadow snapshot constraints
		MaxShadowsPerKey:      3,
		RepairShadowRetention: 10,

		// Category constraints
		DefaultCategoryID:    "general",
		DefaultCategoryName:  "General",
		DefaultCategoryColor: "#6366F1",

		// Note constraints
		LabelMaxLength:   50,
		MaxContentLength: 50000,

		// Backup constraints
		BackupVersion:  "1.0.0",
		StaleBackupAge: 7 * 24 * time.Hour,
		MaxBackupsKept: 20,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More restrictive limits for production
	config.MaxContentLength = 20000
	config.MaxBackupsKept = 50

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
