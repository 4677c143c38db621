package auth

import "errors"

// Kind tags every auth-domain error with exactly one failure category.
// The set is closed: callers can switch on KindOf(err) exhaustively
// instead of comparing error identities.
type Kind uint8

// The closed error taxonomy of the auth core.
const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindAccountLocked
	KindAccountDisabled
	KindTokenExpired
	KindTokenInvalid
	KindUserNotFound
	KindPermissionDenied
)

// String returns the stable machine-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountLocked:
		return "account_locked"
	case KindAccountDisabled:
		return "account_disabled"
	case KindTokenExpired:
		return "token_expired"
	case KindTokenInvalid:
		return "token_invalid"
	case KindUserNotFound:
		return "user_not_found"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// message returns the human-readable default message for the kind.
func (k Kind) message() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindAccountLocked:
		return "account locked"
	case KindAccountDisabled:
		return "account disabled"
	case KindTokenExpired:
		return "token has expired"
	case KindTokenInvalid:
		return "invalid token"
	case KindUserNotFound:
		return "user not found"
	case KindPermissionDenied:
		return "permission denied"
	default:
		return "authentication error"
	}
}

// Error is the single error type returned for auth-domain failures.
// Infrastructure failures (database, registry connectivity) are NOT
// Errors; they are wrapped with operation context and propagate as-is.
type Error struct {
	Kind Kind   // failure category, always set
	Op   string // originating operation, e.g. "auth.Login"
	Err  error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.message()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality, so errors.Is(err, ErrAccountLocked) matches
// any *Error carrying KindAccountLocked regardless of Op or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for use with errors.Is. These carry no Op or cause;
// construct real errors with E.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrAccountLocked      = &Error{Kind: KindAccountLocked}
	ErrAccountDisabled    = &Error{Kind: KindAccountDisabled}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrTokenInvalid       = &Error{Kind: KindTokenInvalid}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
)

// E constructs a tagged auth error. err may be nil.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from an error chain. Errors that are not
// auth-domain errors (infrastructure failures) report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
