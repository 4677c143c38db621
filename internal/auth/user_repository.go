package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUsernameExists is returned when creating a user whose username or
// email collides with an existing account.
var ErrUsernameExists = errors.New("username or email already exists")

// UserRepository defines the persistence interface for staff accounts.
// Account CRUD belongs to the user management layer; the auth core calls
// GetByIdentifier, RecordLoginFailure, RecordLoginSuccess, GetByID and
// UpdatePassword.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLoginFailure(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, is_active,
	failed_attempts, locked_until, last_login_at, created_at, updated_at`

// Create inserts a new staff account. The ID is generated if empty.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, is_active,
		 failed_attempts, locked_until, last_login_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, NULL, NULL, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		string(user.Role), boolToInt(user.IsActive),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUserRow(row)
}

// GetByIdentifier retrieves a user by username or email. The match is
// case-sensitive against the stored values.
func (r *SQLiteUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ?",
		identifier, identifier)
	return scanUserRow(row)
}

// List returns all users ordered by creation date.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Update modifies the account-management fields (username, email, role,
// is_active). The auth-owned columns are untouched; use the dedicated
// methods for those.
func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC().Truncate(time.Second)
	user.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, role = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Email, string(user.Role), boolToInt(user.IsActive),
		formatTime(now), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("updating user: %w", err)
	}

	return requireRow(result, "auth.UpdateUser")
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return requireRow(result, "auth.UpdatePassword")
}

// RecordLoginFailure persists the outcome of a failed login attempt:
// the new consecutive-failure count and, when the lockout policy just
// triggered, the lock expiry. Both columns are written in a single
// UPDATE so a cancelled request can never leave the row half-updated.
func (r *SQLiteUserRepository) RecordLoginFailure(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = ?, locked_until = ?, updated_at = ? WHERE id = ?`,
		failedAttempts, formatTimePtr(lockedUntil), formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("recording login failure: %w", err)
	}
	return requireRow(result, "auth.RecordLoginFailure")
}

// RecordLoginSuccess resets the failure counter, clears any lock and
// stamps the last login time, all in one UPDATE.
func (r *SQLiteUserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0, locked_until = NULL, last_login_at = ?, updated_at = ?
		 WHERE id = ?`,
		formatTime(at), formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("recording login success: %w", err)
	}
	return requireRow(result, "auth.RecordLoginSuccess")
}

// Delete removes a staff account by ID.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(result, "auth.DeleteUser")
}

// Count returns the total number of staff accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// requireRow converts a zero-rows-affected result into ErrUserNotFound.
func requireRow(result sql.Result, op string) error {
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return E(KindUserNotFound, op, nil)
	}
	return nil
}

// scanner is the shared Scan surface of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanUserRow scans a user from a single-row query.
func scanUserRow(row *sql.Row) (*User, error) {
	return scanUserFrom(row)
}

// scanUserFrom scans a user from any scanner (Row or Rows).
func scanUserFrom(s scanner) (*User, error) {
	var u User
	var role string
	var isActive int
	var lockedUntil, lastLoginAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&isActive, &u.FailedAttempts, &lockedUntil, &lastLoginAt,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, E(KindUserNotFound, "auth.GetUser", nil)
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	u.IsActive = isActive != 0
	u.LockedUntil = parseTimePtr(lockedUntil)
	u.LastLoginAt = parseTimePtr(lastLoginAt)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)

	return &u, nil
}

// Time and null helpers. Timestamps are stored as RFC3339 TEXT.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // format is controlled
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
