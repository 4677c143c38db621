package auth

import "time"

// Lockout defaults, used when configuration leaves them unset.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy decides when repeated login failures lock an account.
// It is a pure value: all persistence and clock reads belong to the
// caller, which keeps the policy testable without mocking storage.
type LockoutPolicy struct {
	// MaxAttempts is the number of consecutive failures that triggers a lock.
	MaxAttempts int

	// LockoutDuration is how long a triggered lock lasts.
	LockoutDuration time.Duration
}

// LockoutDecision is the outcome of evaluating a failure count.
// It is derived state, never stored on its own: the user row's counter
// and lock timestamp remain the single source of truth.
type LockoutDecision struct {
	Locked      bool
	LockedUntil *time.Time
}

// NewLockoutPolicy builds a policy, substituting defaults for
// non-positive values.
func NewLockoutPolicy(maxAttempts int, lockoutDuration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, LockoutDuration: lockoutDuration}
}

// Evaluate decides whether an account with failedAttempts consecutive
// failures (including the one being processed) is now locked, and until
// when. now is injected so callers control the clock.
func (p LockoutPolicy) Evaluate(failedAttempts int, now time.Time) LockoutDecision {
	if failedAttempts < p.MaxAttempts {
		return LockoutDecision{}
	}
	until := now.Add(p.LockoutDuration)
	return LockoutDecision{Locked: true, LockedUntil: &until}
}

// IsLocked reports whether a previously recorded lock is still in force.
// A nil or elapsed timestamp means the account may attempt login again;
// expiry is evaluated lazily here, never by a background sweep.
func (p LockoutPolicy) IsLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && now.Before(*lockedUntil)
}
