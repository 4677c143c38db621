package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token lifetime rules.
const (
	// DefaultAccessTokenTTL is used when configuration leaves the access
	// token lifetime unset.
	DefaultAccessTokenTTL = 24 * time.Hour

	// refreshLifetimeMultiple fixes the refresh token lifetime at a
	// multiple of the access token lifetime, both measured from the same
	// issuance instant.
	refreshLifetimeMultiple = 7
)

// Claims is the signed claims bundle carried by both access and refresh
// tokens. A token pair issued together shares one SessionID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"sid"`
}

// TokenCodec issues and validates the signed token pairs. Issuance needs
// only a clock and the signing secret; validation is pure computation.
// Neither consults the session registry; revocation checks belong to
// callers that care (see Service.IsSessionRevoked).
type TokenCodec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenCodec creates a codec signing with the given symmetric secret.
// accessTTL <= 0 falls back to DefaultAccessTokenTTL.
func NewTokenCodec(secret []byte, issuer string, accessTTL time.Duration) *TokenCodec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	return &TokenCodec{
		secret:    secret,
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// AccessTokenTTL returns the configured access token lifetime. The
// session registry uses it as the revocation entry TTL.
func (c *TokenCodec) AccessTokenTTL() time.Duration { return c.accessTTL }

// SetClock overrides the codec's time source. Intended for tests.
func (c *TokenCodec) SetClock(now func() time.Time) { c.now = now }

// Issue mints a fresh access/refresh pair for the user. Both tokens are
// built from the same instant and share a newly generated session
// identifier; the refresh token expires refreshLifetimeMultiple times
// later than the access token.
func (c *TokenCodec) Issue(user *User) (*TokenPair, error) {
	sessionID := uuid.NewString()
	now := c.now()

	access, err := c.sign(user, sessionID, now, c.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := c.sign(user, sessionID, now, refreshLifetimeMultiple*c.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(c.accessTTL.Seconds()),
	}, nil
}

// sign builds and signs one token with the shared claim shape.
func (c *TokenCodec) sign(user *User, sessionID string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Validate parses and verifies a token string, returning its claims.
//
// The signing method is pinned to HS256: a token claiming any other
// algorithm is rejected before signature verification, which defends
// against algorithm-confusion attacks. Expiry is additionally checked
// explicitly so an expired-but-well-formed token always maps to
// KindTokenExpired; every other failure maps to KindTokenInvalid.
func (c *TokenCodec) Validate(tokenString string) (*Claims, error) {
	const op = "auth.ValidateToken"

	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, E(KindTokenExpired, op, err)
		}
		return nil, E(KindTokenInvalid, op, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, E(KindTokenInvalid, op, nil)
	}

	if claims.ExpiresAt == nil {
		return nil, E(KindTokenInvalid, op, errors.New("missing expiry"))
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, E(KindTokenExpired, op, nil)
	}

	if err := claims.checkRequired(); err != nil {
		return nil, E(KindTokenInvalid, op, err)
	}

	return claims, nil
}

// checkRequired verifies that every wire-level claim field is present.
// Tokens are only ever minted by Issue, so an absent field means the
// token was not produced by this system.
func (claims *Claims) checkRequired() error {
	switch {
	case claims.Subject == "":
		return errors.New("missing subject")
	case claims.UserID == "":
		return errors.New("missing user id")
	case claims.Username == "":
		return errors.New("missing username")
	case claims.Email == "":
		return errors.New("missing email")
	case claims.Role == "":
		return errors.New("missing role")
	case claims.SessionID == "":
		return errors.New("missing session id")
	case claims.IssuedAt == nil:
		return errors.New("missing issued-at")
	case claims.NotBefore == nil:
		return errors.New("missing not-before")
	}
	return nil
}
