package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const productColumns = `id, owner_id, name, category, expiration_days_delta, running_low, barcode, created_at, updated_at`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *Product) error {
	err := s.db.QueryRowContext(ctx, `
		insert into products(owner_id, name, category, expiration_days_delta, running_low, barcode)
		values ($1,$2,$3,$4,$5,nullif($6,''))
		returning id, created_at, updated_at
	`, p.OwnerID, p.Name, p.Category, p.ExpirationDaysDelta, p.RunningLow, p.Barcode).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrBarcodeExists
	}
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where id=$1`, id)
	return scanProduct(row)
}

func (s *PGStore) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where barcode=$1`, barcode)
	return scanProduct(row)
}

func (s *PGStore) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from products where barcode=$1)`, barcode).Scan(&exists)
	return exists, err
}

func (s *PGStore) List(ctx context.Context) ([]*Product, error) {
	return s.queryProducts(ctx,
		`select `+productColumns+` from products order by id asc`)
}

func (s *PGStore) ListByName(ctx context.Context, name string) ([]*Product, error) {
	return s.queryProducts(ctx,
		`select `+productColumns+` from products where name=$1 order by id asc`, name)
}

func (s *PGStore) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	return s.queryProducts(ctx,
		`select `+productColumns+` from products where category=$1 order by id asc`, category)
}

func (s *PGStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select distinct category from products order by category asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		res = append(res, category)
	}
	return res, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, p *Product) error {
	result, err := s.db.ExecContext(ctx, `
		update products
		set name=$2, category=$3, expiration_days_delta=$4, running_low=$5,
		    barcode=nullif($6,''), updated_at=now()
		where id=$1
	`, p.ID, p.Name, p.Category, p.ExpirationDaysDelta, p.RunningLow, p.Barcode)
	if isUniqueViolation(err) {
		return ErrBarcodeExists
	}
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *PGStore) queryProducts(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p       Product
		barcode sql.NullString
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Category,
		&p.ExpirationDaysDelta, &p.RunningLow, &barcode, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Barcode = barcode.String
	return &p, nil
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
