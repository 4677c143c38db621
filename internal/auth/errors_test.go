package auth

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_KindMatching(t *testing.T) {
	err := E(KindAccountLocked, "auth.Login", nil)

	if !errors.Is(err, ErrAccountLocked) {
		t.Error("errors.Is should match the account-locked sentinel")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("errors.Is matched a different kind")
	}
	if KindOf(err) != KindAccountLocked {
		t.Errorf("KindOf = %v, want account_locked", KindOf(err))
	}
}

func TestError_SurvivesWrapping(t *testing.T) {
	inner := E(KindTokenExpired, "auth.ValidateToken", nil)
	wrapped := fmt.Errorf("middleware: %w", inner)

	if !errors.Is(wrapped, ErrTokenExpired) {
		t.Error("kind matching should survive fmt.Errorf wrapping")
	}
	if KindOf(wrapped) != KindTokenExpired {
		t.Errorf("KindOf(wrapped) = %v, want token_expired", KindOf(wrapped))
	}
}

func TestKindOf_InfrastructureErrors(t *testing.T) {
	plain := errors.New("database is locked")

	if KindOf(plain) != KindUnknown {
		t.Errorf("KindOf(plain error) = %v, want unknown", KindOf(plain))
	}
	if errors.Is(plain, ErrInvalidCredentials) {
		t.Error("plain error matched an auth sentinel")
	}
}

func TestError_Message(t *testing.T) {
	err := E(KindInvalidCredentials, "auth.Login", nil)
	want := "auth.Login: invalid credentials"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := errors.New("boom")
	err = E(KindTokenInvalid, "auth.ValidateToken", cause)
	if got := err.Error(); got != "auth.ValidateToken: invalid token: boom" {
		t.Errorf("Error() with cause = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInvalidCredentials, "invalid_credentials"},
		{KindAccountLocked, "account_locked"},
		{KindAccountDisabled, "account_disabled"},
		{KindTokenExpired, "token_expired"},
		{KindTokenInvalid, "token_invalid"},
		{KindUserNotFound, "user_not_found"},
		{KindPermissionDenied, "permission_denied"},
		{KindUnknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
