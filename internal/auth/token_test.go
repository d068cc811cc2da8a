package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, expiresAt, err := svc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(TokenLifetime); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if !claims.IssuedAt.Equal(now) {
		t.Fatalf("issuedAt = %v, want %v", claims.IssuedAt, now)
	}
}

func TestTokenDistinctPerIssue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	first, _, err := svc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, _, err := svc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Same subject, same instant, still distinct tokens thanks to the jti.
	if first == second {
		t.Fatal("expected distinct tokens for repeated issuance")
	}
}

func TestTokenTamperRejected(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("test-secret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, _, err := svc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	cases := map[string]string{
		"payload":   parts[0] + ".eyJzdWIiOiJtYWxsb3J5In0." + parts[2],
		"signature": parts[0] + "." + parts[1] + ".AAAA",
		"garbage":   "not-a-token",
		"empty":     "",
	}
	for name, tampered := range cases {
		if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuerSvc, _ := NewTokenService("secret-a", WithClock(fixedClock(now)))
	verifierSvc, _ := NewTokenService("secret-b", WithClock(fixedClock(now)))

	token, _, err := issuerSvc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifierSvc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := NewTokenService("test-secret", WithClock(fixedClock(issued)))
	token, _, err := svc.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"fresh", issued.Add(time.Minute), false},
		{"just before expiry", issued.Add(TokenLifetime - time.Minute), false},
		{"after expiry", issued.Add(TokenLifetime + time.Minute), true},
		{"far after expiry", issued.Add(48 * time.Hour), true},
	}
	for _, tc := range cases {
		later, _ := NewTokenService("test-secret", WithClock(fixedClock(tc.at)))
		_, err := later.Verify(token)
		if tc.wantErr && !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
