package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// Identity modes
const (
	IdentityModeHeader = "header"
	IdentityModeJWT    = "jwt"
)

// Config holds all configuration for our application
type Config struct {
	Port           string
	Origin         string
	Environment    string
	LogLevel       string
	MetricsEnabled bool
	StorageDriver  string
	Database       DatabaseConfig
	Identity       IdentityConfig
	Emergency      EmergencyConfig
	Audit          AuditConfig
	Consent        ConsentConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// IdentityConfig selects where the trusted caller identity is read from.
type IdentityConfig struct {
	Mode      string
	JWTSecret string
}

// EmergencyConfig controls the break-glass not-found fallback.
type EmergencyConfig struct {
	FallbackEnabled  bool
	FallbackPrefixes []string
	FallbackMarkers  []string
}

// AuditConfig lists the roles allowed to read every emergency access entry.
type AuditConfig struct {
	GlobalViewerRoles []string
}

// ConsentConfig holds consent store behaviour switches.
type ConsentConfig struct {
	RevokeMissingIsNoop bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dbConfig := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	driver := strings.ToLower(v.GetString("STORAGE_DRIVER"))
	if driver != StorageMySQL && driver != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: want %q or %q", driver, StorageMySQL, StorageMemory)
	}

	mode := strings.ToLower(v.GetString("IDENTITY_MODE"))
	if mode != IdentityModeHeader && mode != IdentityModeJWT {
		return nil, fmt.Errorf("invalid IDENTITY_MODE %q: want %q or %q", mode, IdentityModeHeader, IdentityModeJWT)
	}
	if mode == IdentityModeJWT && v.GetString("JWT_SECRET") == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when IDENTITY_MODE=%s", IdentityModeJWT)
	}

	return &Config{
		Port:           v.GetString("PORT"),
		Origin:         v.GetString("ORIGIN"),
		Environment:    v.GetString("APP_ENV"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		StorageDriver:  driver,
		Database:       dbConfig,
		Identity: IdentityConfig{
			Mode:      mode,
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Emergency: EmergencyConfig{
			FallbackEnabled:  v.GetBool("EMERGENCY_FALLBACK_ENABLED"),
			FallbackPrefixes: splitList(v.GetString("EMERGENCY_FALLBACK_PREFIXES")),
			FallbackMarkers:  splitList(v.GetString("EMERGENCY_FALLBACK_MARKERS")),
		},
		Audit: AuditConfig{
			GlobalViewerRoles: splitList(v.GetString("AUDIT_LOG_GLOBAL_VIEWER_ROLES")),
		},
		Consent: ConsentConfig{
			RevokeMissingIsNoop: v.GetBool("CONSENT_REVOKE_MISSING_IS_NOOP"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "4000")
	v.SetDefault("ORIGIN", "http://localhost:3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("STORAGE_DRIVER", StorageMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "sovereign_health")

	v.SetDefault("IDENTITY_MODE", IdentityModeHeader)
	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("EMERGENCY_FALLBACK_ENABLED", true)
	v.SetDefault("EMERGENCY_FALLBACK_PREFIXES", "NB-")
	v.SetDefault("EMERGENCY_FALLBACK_MARKERS", "PATIENT")

	v.SetDefault("AUDIT_LOG_GLOBAL_VIEWER_ROLES", "DOCTOR,RESEARCHER,PHARMA")
	v.SetDefault("CONSENT_REVOKE_MISSING_IS_NOOP", false)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
