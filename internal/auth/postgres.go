package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUniqueViolation = "23505"

// PGUserStore implements UserStore using PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

var _ UserStore = (*PGUserStore)(nil)

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users(email, username, password_hash, is_admin)
		values ($1,$2,$3,$4)
		returning id, created_at, updated_at
	`, u.Email, u.Username, u.PasswordHash, u.Role.IsAdmin()).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (s *PGUserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, username, password_hash, is_admin, created_at, updated_at
		from users where id=$1
	`, id)
	return scanUser(row)
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, username, password_hash, is_admin, created_at, updated_at
		from users where email=$1
	`, email)
	return scanUser(row)
}

func (s *PGUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, email, username, password_hash, is_admin, created_at, updated_at
		from users order by id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *PGUserStore) Update(ctx context.Context, u *User) error {
	result, err := s.db.ExecContext(ctx, `
		update users set email=$2, username=$3, is_admin=$4, updated_at=now()
		where id=$1
	`, u.ID, u.Email, u.Username, u.Role.IsAdmin())
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *PGUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		update users set password_hash=$2, updated_at=now() where id=$1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *PGUserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		isAdmin bool
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &isAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = RoleRegular
	if isAdmin {
		u.Role = RoleAdmin
	}
	return &u, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PGRevocationStore implements RevocationStore using PostgreSQL. Each record
// insert and delete is individually atomic; no transaction spans the sweep
// and the insert.
type PGRevocationStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ RevocationStore = (*PGRevocationStore)(nil)

func NewPGRevocationStore(db *sql.DB, clock func() time.Time) *PGRevocationStore {
	if clock == nil {
		clock = time.Now
	}
	return &PGRevocationStore{db: db, now: clock}
}

// Revoke sweeps entries older than the token lifetime, then records the
// token. The insert is idempotent: revoking an already-revoked token is a
// no-op that keeps the original revocation time.
func (s *PGRevocationStore) Revoke(ctx context.Context, token string) error {
	if _, err := s.Sweep(ctx, s.now()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		insert into revoked_tokens(token, revoked_at)
		values ($1,$2)
		on conflict (token) do nothing
	`, token, s.now().UTC())
	return err
}

func (s *PGRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from revoked_tokens where token=$1)`, token).Scan(&revoked)
	return revoked, err
}

// Sweep deletes every record older than the token lifetime; beyond that
// point the token fails the expiry check on its own.
func (s *PGRevocationStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`delete from revoked_tokens where revoked_at < $1`, now.UTC().Add(-TokenLifetime))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
