package auth

import (
	"context"
	"errors"
	"strings"
)

// Users implements account management. Every mutation is gated by the
// authorization engine; field-level input validation happens at the HTTP
// boundary.
type Users struct {
	store    UserStore
	sessions *Sessions
}

// NewUsers constructs the account service.
func NewUsers(store UserStore, sessions *Sessions) (*Users, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if sessions == nil {
		return nil, errors.New("auth: session facade is required")
	}
	return &Users{store: store, sessions: sessions}, nil
}

// SignUpRequest carries the fields of a create-account call.
type SignUpRequest struct {
	Email          string
	Username       string
	Password       string
	PasswordRepeat string
}

// UpdateUserRequest carries the optional fields of an account update. Nil
// means the field is untouched.
type UpdateUserRequest struct {
	Email    *string
	Username *string
	IsAdmin  *bool
}

// UpdateResult is the outcome of an account update. Credential is non-nil
// only when the caller changed its own email and received a replacement
// token.
type UpdateResult struct {
	User       *User
	Credential *Credential
}

// SignUp creates a regular account. Only anonymous callers may sign up.
func (u *Users) SignUp(ctx context.Context, p *Principal, req SignUpRequest) (*User, error) {
	if p != nil {
		return nil, ErrAlreadyAuthenticated
	}
	if req.Password != req.PasswordRepeat {
		return nil, ErrPasswordMismatch
	}
	exists, err := u.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        req.Email,
		Username:     req.Username,
		Role:         RoleRegular,
		PasswordHash: hash,
	}
	if err := u.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns all accounts. Admin only.
func (u *Users) List(ctx context.Context, p *Principal) ([]*User, error) {
	if d := Authorize(p, ActionList, Resource{Kind: ResourceUser}); !d.Allowed {
		return nil, Denied(d.Field)
	}
	return u.store.List(ctx)
}

// Get returns a single account, visible to the account itself and to admins.
func (u *Users) Get(ctx context.Context, p *Principal, id int64) (*User, error) {
	if d := Authorize(p, ActionRead, Resource{Kind: ResourceUser, ID: id}); !d.Allowed {
		return nil, Denied(d.Field)
	}
	return u.store.FindByID(ctx, id)
}

// Update applies the requested field changes. When the caller changes its own
// email, the presented token is revoked and a replacement bound to the new
// email is returned; an admin changing someone else's email issues nothing,
// and that session stops resolving on its next directory lookup.
func (u *Users) Update(ctx context.Context, p *Principal, presentedToken string, id int64, req UpdateUserRequest) (UpdateResult, error) {
	if d := Authorize(p, ActionUpdate, Resource{Kind: ResourceUser, ID: id}); !d.Allowed {
		return UpdateResult{}, Denied(d.Field)
	}
	user, err := u.store.FindByID(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}

	if req.Username != nil && strings.TrimSpace(*req.Username) != "" {
		user.Username = *req.Username
	}

	emailChanged := false
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" && *req.Email != user.Email {
		exists, err := u.store.EmailExists(ctx, *req.Email)
		if err != nil {
			return UpdateResult{}, err
		}
		if exists {
			return UpdateResult{}, ErrEmailExists
		}
		user.Email = *req.Email
		emailChanged = true
	}

	if req.IsAdmin != nil {
		if d := Authorize(p, ActionUpdateRole, Resource{Kind: ResourceUser, ID: id}); !d.Allowed {
			return UpdateResult{}, Denied(d.Field)
		}
		if *req.IsAdmin {
			user.Role = RoleAdmin
		} else {
			user.Role = RoleRegular
		}
	}

	if err := u.store.Update(ctx, user); err != nil {
		return UpdateResult{}, err
	}

	result := UpdateResult{User: user}
	if emailChanged && p != nil && p.ID == user.ID {
		cred, err := u.sessions.Reissue(ctx, presentedToken, user.Email)
		if err != nil {
			return UpdateResult{}, err
		}
		result.Credential = &cred
	}
	return result, nil
}

// Delete removes an account. Admin only, and never the admin's own account.
func (u *Users) Delete(ctx context.Context, p *Principal, id int64) error {
	if d := Authorize(p, ActionDelete, Resource{Kind: ResourceUser, ID: id}); !d.Allowed {
		return Denied(d.Field)
	}
	if _, err := u.store.FindByID(ctx, id); err != nil {
		return err
	}
	return u.store.Delete(ctx, id)
}
