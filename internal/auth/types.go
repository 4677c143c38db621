package auth

import (
	"strings"
	"time"
)

// maxIdentifierLength bounds the login identifier before lookup.
const maxIdentifierLength = 254

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleAdmin has full control: users, audit, suppliers, reports,
	// plus everything the operational roles can do.
	RoleAdmin Role = "admin"

	// RoleManager runs the shop floor: stock, pricing, suppliers,
	// reports. Cannot manage user accounts.
	RoleManager Role = "manager"

	// RolePharmacist dispenses and sells: creates sales, maintains
	// customer records, adjusts stock on hand.
	RolePharmacist Role = "pharmacist"

	// RoleAssistant is read-mostly: looks up products, stock and
	// customers at the counter but cannot close a sale alone.
	RoleAssistant Role = "assistant"
)

// ValidRoles is the closed set of assignable roles.
var ValidRoles = []Role{RoleAdmin, RoleManager, RolePharmacist, RoleAssistant}

// IsValidRole returns true if the role is one of the closed enumeration.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents a staff account. Most fields are owned by the user
// management layer; the auth core mutates only PasswordHash,
// FailedAttempts, LockedUntil and LastLoginAt.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"` // never serialised
	Role           Role       `json:"role"`
	IsActive       bool       `json:"is_active"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Scrubbed returns a copy safe to hand to callers: the password hash and
// the auth-internal lockout bookkeeping are zeroed.
func (u *User) Scrubbed() *User {
	c := *u
	c.PasswordHash = ""
	c.FailedAttempts = 0
	c.LockedUntil = nil
	return &c
}

// TokenPair is the result of issuing or rotating tokens. Access and
// refresh always carry the same session identifier.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// LoginResult is returned by a successful Login or RefreshToken call.
type LoginResult struct {
	TokenPair
	User *User `json:"user"`
}

// SanitizeIdentifier normalises a login identifier (username or email)
// before lookup: surrounding whitespace is dropped and the length is
// bounded. Stored values are matched case-sensitively, so no case
// folding happens here.
func SanitizeIdentifier(identifier string) string {
	s := strings.TrimSpace(identifier)
	if len(s) > maxIdentifierLength {
		s = s[:maxIdentifierLength]
	}
	return s
}
