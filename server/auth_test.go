package main

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testAuth(t *testing.T, db *DB, password string) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAuth(db, OperatorConfig{PasswordHash: string(hash)})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	return a
}

func TestAuthDisabledWithoutPassword(t *testing.T) {
	a, err := NewAuth(nil, OperatorConfig{})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	if a.Enabled() {
		t.Error("auth should be disabled without a password")
	}
	if _, err := a.Login("x", "1.2.3.4"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("expected ErrAuthDisabled, got %v", err)
	}
	var nilAuth *Auth
	if nilAuth.Enabled() {
		t.Error("nil auth should be disabled")
	}
}

func TestAuthLoginAndValidate(t *testing.T) {
	a := testAuth(t, nil, "secret")
	if !a.Enabled() {
		t.Fatal("auth should be enabled")
	}
	if _, err := a.Login("wrong", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	token, err := a.Login("secret", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.ValidateToken(token); err != nil {
		t.Errorf("ValidateToken: %v", err)
	}
	if err := a.ValidateToken(token + "x"); err == nil {
		t.Error("tampered token should not validate")
	}
}

func TestAuthRejectsBadHash(t *testing.T) {
	if _, err := NewAuth(nil, OperatorConfig{PasswordHash: "not-a-hash"}); err == nil {
		t.Error("expected error for invalid bcrypt hash")
	}
}

func TestAuthRateLimit(t *testing.T) {
	a := testAuth(t, nil, "secret")
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("wrong", "9.9.9.9")
	}
	if _, err := a.Login("secret", "9.9.9.9"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if _, err := a.Login("secret", "8.8.8.8"); err != nil {
		t.Errorf("other IPs should not be limited: %v", err)
	}
}

func TestAuthSecretPersists(t *testing.T) {
	db := openTestDB(t)
	a1 := testAuth(t, db, "secret")
	token, err := a1.Login("secret", "1.1.1.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	a2 := testAuth(t, db, "secret")
	if err := a2.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}
}
