package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for PharmaTrack Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Pharmacy PharmacyConfig `yaml:"pharmacy"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PharmacyConfig contains store-specific information.
type PharmacyConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains session store connection settings.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	DialTimeout int    `yaml:"dial_timeout"` // seconds
}

// AuthConfig contains authentication and session settings.
type AuthConfig struct {
	JWTSecret           string `yaml:"jwt_secret"`
	AccessTokenTTLHours int    `yaml:"access_token_ttl_hours"`
	MaxLoginAttempts    int    `yaml:"max_login_attempts"`
	LockoutMinutes      int    `yaml:"lockout_minutes"`
	BcryptCost          int    `yaml:"bcrypt_cost"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PHARMATRACK_SECTION_KEY
// For example: PHARMATRACK_DATABASE_PATH, PHARMATRACK_REDIS_ADDR
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Pharmacy: PharmacyConfig{
			ID:       "store-001",
			Name:     "PharmaTrack",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/pharmatrack.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 5,
		},
		Auth: AuthConfig{
			AccessTokenTTLHours: 24,
			MaxLoginAttempts:    5,
			LockoutMinutes:      15,
			BcryptCost:          12,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PHARMATRACK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("PHARMATRACK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Redis
	if v := os.Getenv("PHARMATRACK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PHARMATRACK_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PHARMATRACK_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}

	// Auth - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("PHARMATRACK_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	// Logging
	if v := os.Getenv("PHARMATRACK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Pharmacy validation
	if c.Pharmacy.ID == "" {
		errs = append(errs, "pharmacy.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Redis validation
	if c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required")
	}

	// Auth validation - JWT secret is REQUIRED
	// Staff tokens gate access to controlled-substance records and sales.
	// Empty or weak secrets would let an attacker forge tokens and read
	// or alter regulated pharmacy data.
	const minJWTSecretLength = 32
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required (set PHARMATRACK_JWT_SECRET environment variable)")
	} else if len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, "auth.jwt_secret must be at least 32 characters for adequate security")
	}

	if c.Auth.AccessTokenTTLHours < 1 {
		errs = append(errs, "auth.access_token_ttl_hours must be at least 1")
	}
	if c.Auth.MaxLoginAttempts < 1 {
		errs = append(errs, "auth.max_login_attempts must be at least 1")
	}
	if c.Auth.LockoutMinutes < 1 {
		errs = append(errs, "auth.lockout_minutes must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AccessTokenTTL returns the access token lifetime as a Duration.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTLHours) * time.Hour
}

// LockoutDuration returns the account lockout window as a Duration.
func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.Auth.LockoutMinutes) * time.Minute
}

// RedisDialTimeout returns the Redis dial timeout as a Duration.
func (c *Config) RedisDialTimeout() time.Duration {
	return time.Duration(c.Redis.DialTimeout) * time.Second
}
