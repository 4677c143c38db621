// PharmaTrack Core - Pharmacy Point of Sale and Inventory Platform
//
// This is the main entry point for the PharmaTrack Core application.
// It wires together the store database, the Redis session store and
// the authentication service that gates every staff-facing operation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/pharmatrack/pharmatrack-core/migrations"

	"github.com/pharmatrack/pharmatrack-core/internal/audit"
	"github.com/pharmatrack/pharmatrack-core/internal/auth"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/config"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/database"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/logging"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/redis"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PharmaTrack Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to Redis (session revocation store)
	redisClient, err := redis.Connect(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis connection")
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error("error closing redis", "error", closeErr)
		}
	}()
	log.Info("redis connected", "addr", cfg.Redis.Addr)

	// Build the authentication service
	userRepo := auth.NewUserRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService := auth.NewService(auth.ServiceDeps{
		Users:    userRepo,
		Registry: auth.NewRedisSessionRegistry(redisClient.Universal()),
		Codec:    auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), "pharmatrack-core", cfg.AccessTokenTTL()),
		Hasher:   hasher,
		Lockout:  auth.NewLockoutPolicy(cfg.Auth.MaxLoginAttempts, cfg.LockoutDuration()),
		Perms:    auth.DefaultPermissions(),
		Sink: auth.MultiSink{
			auth.NewRepositorySink(auditRepo),
			auth.NewLoggerSink(log),
		},
		Logger: log,
	})
	_ = authService // consumed by the API layer once it lands

	// Seed the initial admin account on first boot
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, hasher, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, redisClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Redis
	// 2. Database

	log.Info("PharmaTrack Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PHARMATRACK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PHARMATRACK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, redisClient *redis.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := redisClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	return nil
}
