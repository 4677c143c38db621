package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/config"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/logging"
)

// testPassword is the default password for seeded test users.
const testPassword = "test-password"

// testSecret is the signing secret used by test codecs.
var testSecret = []byte("test-secret-key-at-least-32-chars!")

// testDB creates a temporary SQLite database with the auth schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('admin', 'manager', 'pharmacist', 'assistant')),
			is_active INTEGER NOT NULL DEFAULT 1,
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			locked_until TEXT,
			last_login_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;

		CREATE INDEX idx_users_role ON users(role);

		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			user_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying auth migration: %v", err)
	}

	return db
}

// testRegistry creates a session registry backed by an in-process Redis.
func testRegistry(t *testing.T) (*RedisSessionRegistry, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisSessionRegistry(rdb), mr
}

// testLogger returns a quiet logger for tests.
func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// seedTestUser inserts a test user with testPassword and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username string, role Role) *User {
	t.Helper()

	hasher := NewPasswordHasher(minBcryptCost)
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	user := &User{
		Username:     username,
		Email:        username + "@pharmacy.test",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

// testService wires a Service over a test database and in-process Redis.
// The returned codec shares the service's signing secret so tests can
// mint and inspect tokens directly.
func testService(t *testing.T, db *sql.DB) (*Service, *TokenCodec, *miniredis.Miniredis) {
	t.Helper()

	registry, mr := testRegistry(t)
	codec := NewTokenCodec(testSecret, "pharmatrack-test", 1*time.Hour)

	svc := NewService(ServiceDeps{
		Users:    NewUserRepository(db),
		Registry: registry,
		Codec:    codec,
		Hasher:   NewPasswordHasher(minBcryptCost),
		Lockout:  NewLockoutPolicy(DefaultMaxLoginAttempts, DefaultLockoutDuration),
		Perms:    DefaultPermissions(),
		Sink:     nil,
		Logger:   testLogger(),
	})

	return svc, codec, mr
}
