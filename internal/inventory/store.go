package inventory

import "context"

// Store describes persistence operations for products. Barcodes are unique
// across the table when present.
type Store interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	BarcodeExists(ctx context.Context, barcode string) (bool, error)
	List(ctx context.Context) ([]*Product, error)
	ListByName(ctx context.Context, name string) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
