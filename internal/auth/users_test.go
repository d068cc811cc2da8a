package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))

	req := SignUpRequest{
		Email:          "bob@example.com",
		Username:       "bob",
		Password:       "secret123",
		PasswordRepeat: "secret123",
	}
	user, err := f.users.SignUp(ctx, nil, req)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Role != RoleRegular {
		t.Fatalf("role = %q, want regular", user.Role)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	// Authenticated callers may not sign up.
	p := PrincipalOf(user)
	if _, err := f.users.SignUp(ctx, &p, req); !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}

	// Duplicate email.
	if _, err := f.users.SignUp(ctx, nil, req); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	// Password repeat mismatch.
	bad := req
	bad.Email = "carol@example.com"
	bad.PasswordRepeat = "secret124"
	if _, err := f.users.SignUp(ctx, nil, bad); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestListAndGetVisibility(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	admin := f.mustCreateUser(t, "admin@example.com", "secret123", RoleAdmin)
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)

	adminP := PrincipalOf(admin)
	aliceP := PrincipalOf(alice)

	if _, err := f.users.List(ctx, &aliceP); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("regular list: expected ErrAccessDenied, got %v", err)
	}
	users, err := f.users.List(ctx, &adminP)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}

	if _, err := f.users.Get(ctx, &aliceP, alice.ID); err != nil {
		t.Fatalf("self get: %v", err)
	}
	if _, err := f.users.Get(ctx, &aliceP, admin.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("other get: expected ErrAccessDenied, got %v", err)
	}
	if _, err := f.users.Get(ctx, &adminP, alice.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := f.users.Get(ctx, &adminP, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing get: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRoleRules(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	admin := f.mustCreateUser(t, "admin@example.com", "secret123", RoleAdmin)
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)

	adminP := PrincipalOf(admin)
	aliceP := PrincipalOf(alice)
	isAdmin := true

	// Nobody changes their own role, not even an admin.
	_, err := f.users.Update(ctx, &aliceP, "", alice.ID, UpdateUserRequest{IsAdmin: &isAdmin})
	if !errors.Is(err, ErrAccessDenied) || DeniedField(err) != "isAdmin" {
		t.Fatalf("self role change: got %v (field %q)", err, DeniedField(err))
	}
	notAdmin := false
	_, err = f.users.Update(ctx, &adminP, "", admin.ID, UpdateUserRequest{IsAdmin: &notAdmin})
	if !errors.Is(err, ErrAccessDenied) || DeniedField(err) != "isAdmin" {
		t.Fatalf("admin self role change: got %v (field %q)", err, DeniedField(err))
	}

	// An admin promotes another account.
	result, err := f.users.Update(ctx, &adminP, "", alice.ID, UpdateUserRequest{IsAdmin: &isAdmin})
	if err != nil {
		t.Fatalf("admin promotes: %v", err)
	}
	if result.User.Role != RoleAdmin {
		t.Fatalf("role = %q, want admin", result.User.Role)
	}
	if result.Credential != nil {
		t.Fatal("role change must not issue a credential")
	}
}

func TestUpdateOwnEmailReissuesToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)
	aliceP := PrincipalOf(alice)

	cred, err := f.sessions.Login(ctx, "alice@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	newEmail := "alice+new@example.com"
	result, err := f.users.Update(ctx, &aliceP, cred.Token, alice.ID, UpdateUserRequest{Email: &newEmail})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if result.Credential == nil {
		t.Fatal("expected a replacement credential")
	}
	if _, err := f.sessions.Authenticate(ctx, cred.Token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("old token should be dead, got %v", err)
	}
	p, err := f.sessions.Authenticate(ctx, result.Credential.Token)
	if err != nil {
		t.Fatalf("Authenticate replacement: %v", err)
	}
	if p.Email != newEmail {
		t.Fatalf("principal email = %q", p.Email)
	}
}

func TestAdminEmailChangeKillsOtherSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	admin := f.mustCreateUser(t, "admin@example.com", "secret123", RoleAdmin)
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)
	adminP := PrincipalOf(admin)

	cred, err := f.sessions.Login(ctx, "alice@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	newEmail := "renamed@example.com"
	result, err := f.users.Update(ctx, &adminP, "", alice.ID, UpdateUserRequest{Email: &newEmail})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if result.Credential != nil {
		t.Fatal("admin changing someone else's email must not receive a credential")
	}
	// Alice's token is still cryptographically valid but its subject no
	// longer resolves, so the session fails closed.
	if _, err := f.sessions.Authenticate(ctx, cred.Token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestUpdateEmailConflict(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	f.mustCreateUser(t, "taken@example.com", "secret123", RoleRegular)
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)
	aliceP := PrincipalOf(alice)

	taken := "taken@example.com"
	if _, err := f.users.Update(ctx, &aliceP, "", alice.ID, UpdateUserRequest{Email: &taken}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedClock(now))
	admin := f.mustCreateUser(t, "admin@example.com", "secret123", RoleAdmin)
	alice := f.mustCreateUser(t, "alice@example.com", "secret123", RoleRegular)
	adminP := PrincipalOf(admin)
	aliceP := PrincipalOf(alice)

	if err := f.users.Delete(ctx, &aliceP, alice.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("self delete: expected ErrAccessDenied, got %v", err)
	}
	if err := f.users.Delete(ctx, &adminP, admin.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("admin self delete: expected ErrAccessDenied, got %v", err)
	}
	if err := f.users.Delete(ctx, &adminP, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing delete: expected ErrNotFound, got %v", err)
	}
	if err := f.users.Delete(ctx, &adminP, alice.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := f.store.FindByID(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected account gone, got %v", err)
	}
}
