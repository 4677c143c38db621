package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt cost bounds. Each cost increment doubles hashing time.
const (
	// DefaultBcryptCost is used when no cost is configured.
	DefaultBcryptCost = 12

	minBcryptCost = bcrypt.MinCost // 4, only sensible in tests
	maxBcryptCost = 18             // ~10s on current hardware; above this is a misconfiguration
)

// PasswordHasher hashes and verifies passwords using bcrypt with a fixed
// work factor. The zero value is not usable; construct with NewPasswordHasher.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Costs outside the supported range fall back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < minBcryptCost || cost > maxBcryptCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash derives a salted bcrypt hash of the plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a plaintext password against a stored bcrypt hash.
// A mismatch returns (false, nil); only malformed hashes return an error.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verifying password: %w", err)
}
