package auth

import (
	"context"
	"time"
)

// UserStore is the directory of accounts: the only source of truth for who a
// token is for and what role they hold. Email lookups are exact-match and
// case-sensitive; email uniqueness is enforced by the store.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// RevocationStore records tokens that must be treated as invalid before their
// natural expiry. Revoke is idempotent and runs a sweep before inserting, so
// the store stays self-cleaning without a background scheduler.
type RevocationStore interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Sweep(ctx context.Context, now time.Time) (int64, error)
}
