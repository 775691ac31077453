package auth

import (
	"errors"
	"testing"
	"time"

	"decode/internal/platform/config"
)

func testConfig() config.SessionConfig {
	return config.SessionConfig{AppName: "decode", Secret: "test-secret-test-secret-test-secret", TTL: time.Hour}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, err := svc.Issue("usr_1", "a@acme.io", "user", "usr_admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	session, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if session.UserID != "usr_1" || session.Role != "user" || !session.Impersonating() {
		t.Errorf("Unexpected session %+v", session)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService(testConfig())

	other := testConfig()
	other.Secret = "another-secret-another-secret-xx"
	forged, _ := NewTokenService(other).Issue("usr_1", "a@acme.io", "admin", "")

	expiredCfg := testConfig()
	expiredCfg.TTL = -time.Minute
	expired, _ := NewTokenService(expiredCfg).Issue("usr_1", "a@acme.io", "user", "")

	for name, token := range map[string]string{
		"Garbage":   "not-a-jwt",
		"Wrong Key": forged,
		"Expired":   expired,
		"Empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("Expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("Expected mismatch")
	}
}
