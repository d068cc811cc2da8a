package auth

import (
	"context"
	"errors"
	"time"
)

// Credential is a freshly issued session token together with the values the
// HTTP layer needs to build the Set-Cookie response.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxAge    int       `json:"max_age"`
}

// Sessions orchestrates token issuance, revocation and principal resolution
// for the login, logout, password change and email change flows. It is the
// only component that combines issuance with revocation.
type Sessions struct {
	tokens  *TokenService
	revoked RevocationStore
	users   UserStore
}

// NewSessions constructs the session facade from explicit handles, so tests
// can substitute in-memory stores without a framework.
func NewSessions(tokens *TokenService, revoked RevocationStore, users UserStore) (*Sessions, error) {
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	return &Sessions{tokens: tokens, revoked: revoked, users: users}, nil
}

// Authenticate resolves a raw token into a principal: cryptographic
// verification first, then the revocation check, then the directory lookup.
// Every failure collapses to ErrNotAuthenticated so callers never learn
// which step rejected the token.
func (s *Sessions) Authenticate(ctx context.Context, raw string) (Principal, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return Principal{}, ErrNotAuthenticated
	}
	revoked, err := s.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return Principal{}, err
	}
	if revoked {
		return Principal{}, ErrNotAuthenticated
	}
	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return Principal{}, ErrNotAuthenticated
	}
	if err != nil {
		return Principal{}, err
	}
	return PrincipalOf(user), nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password return the same generic ErrInvalidCredentials. A caller that
// presents a still-valid token gets ErrAlreadyAuthenticated; prior tokens for
// the account are left untouched, so concurrent sessions are allowed.
func (s *Sessions) Login(ctx context.Context, email, password, presentedToken string) (Credential, error) {
	if presentedToken != "" {
		if _, err := s.Authenticate(ctx, presentedToken); err == nil {
			return Credential{}, ErrAlreadyAuthenticated
		}
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Credential{}, ErrInvalidCredentials
	}
	if err != nil {
		return Credential{}, err
	}
	if !PasswordMatches(user.PasswordHash, password) {
		return Credential{}, ErrInvalidCredentials
	}
	return s.issue(user.Email)
}

// Logout revokes the presented token. A second logout with the same token
// reports ErrNotAuthenticated, because after the first the token no longer
// resolves to a principal.
func (s *Sessions) Logout(ctx context.Context, raw string) error {
	if _, err := s.Authenticate(ctx, raw); err != nil {
		return ErrNotAuthenticated
	}
	return s.revoked.Revoke(ctx, raw)
}

// ChangePassword verifies the old password and the repeat before any
// mutation. The presented token stays valid afterwards; only logout and
// email change revoke.
func (s *Sessions) ChangePassword(ctx context.Context, p Principal, oldPassword, newPassword, newPasswordRepeat string) error {
	user, err := s.users.FindByID(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return err
	}
	if !PasswordMatches(user.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}
	if newPassword != newPasswordRepeat {
		return ErrPasswordMismatch
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// Reissue revokes the old token and issues a replacement bound to the new
// email, so a credential keyed by the old email cannot outlive an email
// change.
func (s *Sessions) Reissue(ctx context.Context, oldToken, newEmail string) (Credential, error) {
	if err := s.revoked.Revoke(ctx, oldToken); err != nil {
		return Credential{}, err
	}
	return s.issue(newEmail)
}

func (s *Sessions) issue(email string) (Credential, error) {
	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		Token:     token,
		ExpiresAt: expiresAt,
		MaxAge:    int(TokenLifetime / time.Second),
	}, nil
}
