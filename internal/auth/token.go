package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "shelflife"

// TokenLifetime is the fixed validity window of a session token.
const TokenLifetime = 24 * time.Hour

// TokenClaims are the verified contents of a session token.
type TokenClaims struct {
	Subject  string
	IssuedAt time.Time
}

// TokenService issues and verifies signed session tokens. Verification is
// purely cryptographic plus the expiry check; revocation is a separate,
// explicit step so the two concerns stay independently testable.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService signing with the given secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue signs a fresh HS256 session token for the given email. It always
// succeeds for a non-empty email and has no side effects beyond token
// construction.
func (s *TokenService) Issue(email string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", time.Time{}, errors.New("auth: email is required")
	}
	now := s.now().UTC()
	expiresAt := now.Add(TokenLifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, structure and expiry of a raw token. Any
// tamper to payload or signature yields ErrInvalidToken; no partial trust.
// It does not consult the revocation store.
func (s *TokenService) Verify(raw string) (TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	if err := s.validateClaims(claims); err != nil {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{
		Subject:  claims.Subject,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

func (s *TokenService) validateClaims(claims *jwt.RegisteredClaims) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return errors.New("timestamps missing")
	}
	now := s.now().UTC()
	if now.Sub(claims.IssuedAt.Time) > TokenLifetime {
		return errors.New("token lifetime exceeded")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	return nil
}
