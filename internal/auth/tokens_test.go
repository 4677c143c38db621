package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testUser() *User {
	return &User{
		ID:       "usr-1a2b3c4d",
		Username: "jsmith",
		Email:    "jsmith@pharmacy.test",
		Role:     RolePharmacist,
		IsActive: true,
	}
}

func TestTokenCodec_IssueAndValidate(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Issue() returned empty token")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens are identical")
	}
	if pair.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", pair.ExpiresIn)
	}

	claims, err := codec.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate(access) error = %v", err)
	}
	if claims.UserID != "usr-1a2b3c4d" {
		t.Errorf("UserID = %q, want usr-1a2b3c4d", claims.UserID)
	}
	if claims.Role != RolePharmacist {
		t.Errorf("Role = %q, want pharmacist", claims.Role)
	}
	if claims.SessionID == "" {
		t.Error("SessionID is empty")
	}
}

func TestTokenCodec_PairSharesSessionAndScalesExpiry(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	access, err := codec.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate(access) error = %v", err)
	}
	refresh, err := codec.Validate(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Validate(refresh) error = %v", err)
	}

	if access.SessionID != refresh.SessionID {
		t.Errorf("session ids differ: access %q, refresh %q", access.SessionID, refresh.SessionID)
	}
	if !access.IssuedAt.Time.Equal(refresh.IssuedAt.Time) {
		t.Error("access and refresh tokens have different issuance times")
	}

	accessLife := access.ExpiresAt.Time.Sub(access.IssuedAt.Time)
	refreshLife := refresh.ExpiresAt.Time.Sub(refresh.IssuedAt.Time)
	if refreshLife != 7*accessLife {
		t.Errorf("refresh lifetime = %v, want 7x access lifetime %v", refreshLife, accessLife)
	}
}

func TestTokenCodec_DistinctSessionsPerIssue(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	p1, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	p2, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	c1, _ := codec.Validate(p1.AccessToken)
	c2, _ := codec.Validate(p2.AccessToken)
	if c1.SessionID == c2.SessionID {
		t.Error("two Issue calls produced the same session id")
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)
	other := NewTokenCodec([]byte("another-secret-that-is-32-chars!!"), "pharmatrack-test", time.Hour)

	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = other.Validate(pair.AccessToken)
	if KindOf(err) != KindTokenInvalid {
		t.Errorf("Validate with wrong secret: kind = %v, want token_invalid (err %v)", KindOf(err), err)
	}
}

func TestTokenCodec_TamperedToken(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = codec.Validate(tampered)
	if KindOf(err) != KindTokenInvalid {
		t.Errorf("Validate(tampered): kind = %v, want token_invalid", KindOf(err))
	}
}

func TestTokenCodec_Garbage(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	for _, s := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Validate(s); KindOf(err) != KindTokenInvalid {
			t.Errorf("Validate(%q): kind = %v, want token_invalid", s, KindOf(err))
		}
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	issued := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	codec.SetClock(func() time.Time { return issued })

	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Move past the access expiry but not the refresh expiry.
	codec.SetClock(func() time.Time { return issued.Add(2 * time.Hour) })

	_, err = codec.Validate(pair.AccessToken)
	if KindOf(err) != KindTokenExpired {
		t.Errorf("Validate(expired access): kind = %v, want token_expired", KindOf(err))
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Error("expired error does not match ErrTokenExpired")
	}

	if _, err := codec.Validate(pair.RefreshToken); err != nil {
		t.Errorf("Validate(refresh) at +2h error = %v, want nil", err)
	}

	// Past the refresh expiry too.
	codec.SetClock(func() time.Time { return issued.Add(8 * 24 * time.Hour) })
	if _, err := codec.Validate(pair.RefreshToken); KindOf(err) != KindTokenExpired {
		t.Errorf("Validate(expired refresh): kind = %v, want token_expired", KindOf(err))
	}
}

func TestTokenCodec_RejectsWrongAlgorithm(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	// Unsigned token claiming alg "none".
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pharmatrack-test",
			Subject:   "usr-1a2b3c4d",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    "usr-1a2b3c4d",
		Username:  "jsmith",
		Email:     "jsmith@pharmacy.test",
		Role:      RolePharmacist,
		SessionID: "sess-1",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := codec.Validate(signed); KindOf(err) != KindTokenInvalid {
		t.Errorf("Validate(alg=none): kind = %v, want token_invalid", KindOf(err))
	}
}

func TestTokenCodec_RejectsWrongIssuer(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)
	imposter := NewTokenCodec(testSecret, "other-system", time.Hour)

	pair, err := imposter.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := codec.Validate(pair.AccessToken); KindOf(err) != KindTokenInvalid {
		t.Errorf("Validate(wrong issuer): kind = %v, want token_invalid", KindOf(err))
	}
}

func TestTokenCodec_RejectsMissingClaims(t *testing.T) {
	codec := NewTokenCodec(testSecret, "pharmatrack-test", time.Hour)

	// Well-signed token missing the session id.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pharmatrack-test",
			Subject:   "usr-1a2b3c4d",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   "usr-1a2b3c4d",
		Username: "jsmith",
		Email:    "jsmith@pharmacy.test",
		Role:     RolePharmacist,
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := codec.Validate(signed); KindOf(err) != KindTokenInvalid {
		t.Errorf("Validate(missing session id): kind = %v, want token_invalid", KindOf(err))
	}
}
