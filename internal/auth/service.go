package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pharmatrack/pharmatrack-core/internal/audit"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/logging"
)

// minPasswordLength is enforced on password changes, not on login.
const minPasswordLength = 8

// ErrPasswordTooShort is returned by ChangePassword for weak replacements.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)

// Service orchestrates authentication: credential checks, lockout
// bookkeeping, token issuance and rotation, session revocation and
// permission decisions. All collaborators are injected; Service holds
// no mutable state of its own and is safe for concurrent use.
//
// Error discipline: expected authentication outcomes surface as *Error
// with a Kind; infrastructure failures (database, registry) are wrapped
// with operation context and propagate unchanged so callers can tell
// "wrong password" from "store is down".
type Service struct {
	users    UserRepository
	registry SessionRegistry
	codec    *TokenCodec
	hasher   *PasswordHasher
	lockout  LockoutPolicy
	perms    *PermissionMatrix
	sink     AuditSink
	logger   *logging.Logger
	now      func() time.Time
}

// ServiceDeps carries the collaborators for NewService. Sink may be
// nil, in which case audit events are dropped silently.
type ServiceDeps struct {
	Users    UserRepository
	Registry SessionRegistry
	Codec    *TokenCodec
	Hasher   *PasswordHasher
	Lockout  LockoutPolicy
	Perms    *PermissionMatrix
	Sink     AuditSink
	Logger   *logging.Logger
}

// NewService wires an authentication service from its collaborators.
func NewService(deps ServiceDeps) *Service {
	return &Service{
		users:    deps.Users,
		registry: deps.Registry,
		codec:    deps.Codec,
		hasher:   deps.Hasher,
		lockout:  deps.Lockout,
		perms:    deps.Perms,
		sink:     deps.Sink,
		logger:   deps.Logger.With("component", "auth"),
		now:      time.Now,
	}
}

// SetClock overrides the service's time source. Intended for tests; the
// codec's clock is set separately.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Login authenticates an identifier/password pair and issues a token
// pair on success. ip is recorded for auditing and may be empty.
//
// A failed attempt increments the consecutive-failure counter and, once
// the lockout policy trips, sets the lock expiry in the same database
// write. A locked or disabled account is rejected before the password
// is compared. Exactly one audit event is emitted per attempt.
func (s *Service) Login(ctx context.Context, identifier, password, ip string) (*LoginResult, error) {
	const op = "auth.Login"

	identifier = SanitizeIdentifier(identifier)
	if identifier == "" || password == "" {
		s.audit(ctx, Event{Action: audit.ActionLoginFailure, IP: ip,
			Details: map[string]any{"reason": "empty_credentials"}})
		return nil, E(KindInvalidCredentials, op, nil)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if KindOf(err) == KindUserNotFound {
			// Unknown identifier reports the same error as a wrong
			// password so callers cannot enumerate accounts.
			s.audit(ctx, Event{Action: audit.ActionLoginFailure, Username: identifier, IP: ip,
				Details: map[string]any{"reason": "unknown_identifier"}})
			return nil, E(KindInvalidCredentials, op, nil)
		}
		return nil, fmt.Errorf("%s: loading user: %w", op, err)
	}

	if !user.IsActive {
		s.audit(ctx, Event{Action: audit.ActionLoginFailure, UserID: user.ID, Username: user.Username, IP: ip,
			Details: map[string]any{"reason": "account_disabled"}})
		return nil, E(KindAccountDisabled, op, nil)
	}

	now := s.now()
	if s.lockout.IsLocked(user.LockedUntil, now) {
		// No password comparison while locked: a correct guess during
		// the window must not be observable.
		s.audit(ctx, Event{Action: audit.ActionLoginFailure, UserID: user.ID, Username: user.Username, IP: ip,
			Details: map[string]any{"reason": "account_locked", "locked_until": user.LockedUntil.Format(time.RFC3339)}})
		return nil, E(KindAccountLocked, op, nil)
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: verifying password: %w", op, err)
	}

	if !match {
		return nil, s.recordFailure(ctx, user, ip, now)
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("%s: recording login success: %w", op, err)
	}

	pair, err := s.codec.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: issuing tokens: %w", op, err)
	}

	s.audit(ctx, Event{Action: audit.ActionLoginSuccess, UserID: user.ID, Username: user.Username, IP: ip})
	s.logger.Info("login succeeded", "user_id", user.ID, "username", user.Username, "ip", ip)

	return &LoginResult{TokenPair: *pair, User: user.Scrubbed()}, nil
}

// recordFailure persists a wrong-password attempt and returns the
// invalid-credentials error. The incremented counter and any new lock
// expiry land in a single UPDATE.
func (s *Service) recordFailure(ctx context.Context, user *User, ip string, now time.Time) error {
	const op = "auth.Login"

	attempts := user.FailedAttempts + 1
	decision := s.lockout.Evaluate(attempts, now)

	if err := s.users.RecordLoginFailure(ctx, user.ID, attempts, decision.LockedUntil); err != nil {
		return fmt.Errorf("%s: recording login failure: %w", op, err)
	}

	if decision.Locked {
		s.logger.Warn("account locked after repeated failures",
			"user_id", user.ID,
			"username", user.Username,
			"ip", ip,
			"failed_attempts", attempts,
			"locked_until", decision.LockedUntil.Format(time.RFC3339),
		)
		s.audit(ctx, Event{Action: audit.ActionAccountLocked, UserID: user.ID, Username: user.Username, IP: ip,
			Details: map[string]any{"failed_attempts": attempts, "locked_until": decision.LockedUntil.Format(time.RFC3339)}})
	} else {
		s.audit(ctx, Event{Action: audit.ActionLoginFailure, UserID: user.ID, Username: user.Username, IP: ip,
			Details: map[string]any{"reason": "wrong_password", "failed_attempts": attempts}})
	}

	return E(KindInvalidCredentials, op, nil)
}

// Logout revokes the session identifier shared by an access/refresh
// pair. The registry entry carries the access token lifetime as its
// TTL, after which both tokens have expired on their own and the entry
// is useless anyway.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	const op = "auth.Logout"

	if err := s.registry.Set(ctx, blacklistKey(sessionID), revokedSentinel, s.codec.AccessTokenTTL()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.audit(ctx, Event{Action: audit.ActionLogout, UserID: userID,
		Details: map[string]any{"session_id": sessionID}})
	return nil
}

// RefreshToken exchanges a valid, unused refresh token for a fresh
// token pair. The old pair's session identifier is blacklisted, so each
// refresh token rotates exactly once; replaying it afterwards reports
// an invalid token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	const op = "auth.RefreshToken"

	claims, err := s.codec.Validate(refreshToken)
	if err != nil {
		return nil, err
	}

	_, err = s.registry.Get(ctx, blacklistKey(claims.SessionID))
	switch {
	case err == nil:
		return nil, E(KindTokenInvalid, op, errors.New("refresh token already used"))
	case errors.Is(err, ErrKeyNotFound):
		// Session is live, continue.
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Re-read the account so a deactivation or role change since login
	// takes effect at the next rotation.
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if KindOf(err) == KindUserNotFound {
			return nil, E(KindUserNotFound, op, nil)
		}
		return nil, fmt.Errorf("%s: loading user: %w", op, err)
	}
	if !user.IsActive {
		return nil, E(KindAccountDisabled, op, nil)
	}

	pair, err := s.codec.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: issuing tokens: %w", op, err)
	}

	if err := s.registry.Set(ctx, blacklistKey(claims.SessionID), revokedSentinel, s.codec.AccessTokenTTL()); err != nil {
		return nil, fmt.Errorf("%s: revoking rotated session: %w", op, err)
	}

	s.audit(ctx, Event{Action: audit.ActionTokenRefresh, UserID: user.ID, Username: user.Username,
		Details: map[string]any{"rotated_session_id": claims.SessionID}})

	return &LoginResult{TokenPair: *pair, User: user.Scrubbed()}, nil
}

// ValidateToken verifies a token's signature, lifetime and claim shape.
// It is pure computation and deliberately does not consult the session
// registry; callers guarding revocation-sensitive surfaces pair it with
// IsSessionRevoked.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.codec.Validate(tokenString)
}

// IsSessionRevoked reports whether a session identifier has been
// blacklisted by Logout or refresh rotation.
func (s *Service) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.registry.Get(ctx, blacklistKey(sessionID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("auth.IsSessionRevoked: %w", err)
	}
}

// ChangePassword replaces a user's password after verifying the current
// one. Existing sessions stay valid until they expire or are revoked.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	const op = "auth.ChangePassword"

	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if KindOf(err) == KindUserNotFound {
			return E(KindUserNotFound, op, nil)
		}
		return fmt.Errorf("%s: loading user: %w", op, err)
	}

	match, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%s: verifying password: %w", op, err)
	}
	if !match {
		return E(KindInvalidCredentials, op, nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: hashing password: %w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.audit(ctx, Event{Action: audit.ActionPasswordChange, UserID: user.ID, Username: user.Username})
	s.logger.Info("password changed", "user_id", user.ID)

	return nil
}

// CheckPermission decides whether a role may perform an action on a
// resource. Unknown roles, resources and actions all deny.
func (s *Service) CheckPermission(role Role, resource, action string) error {
	if !s.perms.Allows(role, resource, action) {
		return E(KindPermissionDenied, "auth.CheckPermission",
			fmt.Errorf("role %q may not %s %s", role, action, resource))
	}
	return nil
}

// audit delivers an event to the sink. Sink failures are logged and
// swallowed so an audit outage cannot block authentication.
func (s *Service) audit(ctx context.Context, event Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("audit sink failure", "action", event.Action, "error", err)
	}
}
