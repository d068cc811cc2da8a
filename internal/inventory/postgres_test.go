package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGStoreCreateBarcodeConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("insert into products").
		WithArgs(int64(5), "Milk", "Dairy", 7, 2, "111").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_barcode_key"})

	store := NewPGStore(db)
	p := &Product{OwnerID: 5, Name: "Milk", Category: "Dairy", ExpirationDaysDelta: 7, RunningLow: 2, Barcode: "111"}
	if err := store.Create(context.Background(), p); !errors.Is(err, ErrBarcodeExists) {
		t.Fatalf("expected ErrBarcodeExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, owner_id, name, category").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "category", "expiration_days_delta", "running_low", "barcode", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.FindByID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreListByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "category", "expiration_days_delta", "running_low", "barcode", "created_at", "updated_at"}).
		AddRow(int64(1), int64(5), "Milk", "Dairy", 7, 2, "111", now, now).
		AddRow(int64(2), int64(5), "Cheese", "Dairy", 14, 1, nil, now, now)
	mock.ExpectQuery("select id, owner_id, name, category.*where category").
		WithArgs("Dairy").
		WillReturnRows(rows)

	store := NewPGStore(db)
	products, err := store.ListByCategory(context.Background(), "Dairy")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	// A null barcode scans to the empty string.
	if products[1].Barcode != "" {
		t.Fatalf("barcode = %q, want empty", products[1].Barcode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select distinct category from products").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Bakery").AddRow("Dairy"))

	store := NewPGStore(db)
	categories, err := store.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "Bakery" {
		t.Fatalf("categories = %v", categories)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from products").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
