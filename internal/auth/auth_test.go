package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate(42, "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	other := NewJWTManager("other-secret", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken with wrong secret, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.Generate(7, "bob")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Inspect ignores signature and expiry.
	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if claims.Username != "bob" {
		t.Errorf("username = %q, want bob", claims.Username)
	}
	if !claims.Expired(time.Now()) {
		t.Error("expected claims to be expired")
	}

	if _, err := Inspect(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
	if _, err := Inspect("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"alice@example.com", nil},
		{"a@b.c", nil},
		{"", ErrEmailRequired},
		{"   ", ErrEmailRequired},
		{"alice", ErrEmailInvalid},
		{"alice@example", ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ValidateEmail(tt.email); got != tt.want {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidatePasswordConfirmation(t *testing.T) {
	if err := ValidatePasswordConfirmation("secret123", "secret123"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := ValidatePasswordConfirmation("secret123", "secret124"); err != ErrPasswordMismatch {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := ValidatePasswordConfirmation("", ""); err != ErrPasswordRequired {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestScheme(t *testing.T) {
	s, err := ParseScheme("legacy")
	if err != nil || s != SchemeToken {
		t.Fatalf("ParseScheme(legacy) = %v, %v", s, err)
	}
	if _, err := ParseScheme("basic"); err == nil {
		t.Error("expected error for unknown scheme")
	}

	header := SchemeBearer.Header("abc")
	if header != "Bearer abc" {
		t.Errorf("Header = %q", header)
	}
	scheme, token, ok := ParseHeader(header)
	if !ok || scheme != SchemeBearer || token != "abc" {
		t.Errorf("ParseHeader(%q) = %v %v %v", header, scheme, token, ok)
	}
	if _, _, ok := ParseHeader("Basic abc"); ok {
		t.Error("expected Basic to be rejected")
	}
}
