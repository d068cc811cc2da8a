package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shelflife.org/internal/auth"
)

const maxBarcodeLength = 40

// Service implements product operations. Reads require an authenticated
// principal; mutations are gated by the authorization engine (owner or
// admin).
type Service struct {
	store Store
}

// NewService constructs the product service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("inventory: store is required")
	}
	return &Service{store: store}, nil
}

// CreateRequest carries the fields of a create-product call.
type CreateRequest struct {
	Name                string
	Category            string
	Barcode             string
	ExpirationDaysDelta int
	RunningLow          int
}

// UpdateRequest carries the optional fields of a product update. Nil or
// blank means the field is untouched; numeric fields are validated when
// present.
type UpdateRequest struct {
	Name                *string
	Category            *string
	Barcode             *string
	ExpirationDaysDelta *int
	RunningLow          *int
}

// List returns products, optionally filtered by exact name or category.
func (s *Service) List(ctx context.Context, p *auth.Principal, name, category string) ([]*Product, error) {
	if d := auth.Authorize(p, auth.ActionList, auth.Resource{Kind: auth.ResourceProduct}); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}
	switch {
	case name != "":
		return s.store.ListByName(ctx, name)
	case category != "":
		return s.store.ListByCategory(ctx, category)
	default:
		return s.store.List(ctx)
	}
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Product, error) {
	if d := auth.Authorize(p, auth.ActionRead, auth.Resource{Kind: auth.ResourceProduct, ID: id}); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}
	return s.store.FindByID(ctx, id)
}

// GetByBarcode returns a product by its barcode.
func (s *Service) GetByBarcode(ctx context.Context, p *auth.Principal, barcode string) (*Product, error) {
	if d := auth.Authorize(p, auth.ActionRead, auth.Resource{Kind: auth.ResourceProduct}); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}
	return s.store.FindByBarcode(ctx, barcode)
}

// Categories returns the distinct category names in use.
func (s *Service) Categories(ctx context.Context, p *auth.Principal) ([]string, error) {
	if d := auth.Authorize(p, auth.ActionList, auth.Resource{Kind: auth.ResourceProduct}); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}
	return s.store.Categories(ctx)
}

// Create stores a new product owned by the caller.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req CreateRequest) (*Product, error) {
	if d := auth.Authorize(p, auth.ActionCreate, auth.Resource{Kind: auth.ResourceProduct}); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if req.ExpirationDaysDelta < 1 {
		return nil, fmt.Errorf("%w: expirationDaysDelta must be larger than 0", ErrInvalidInput)
	}
	if req.RunningLow < 1 {
		return nil, fmt.Errorf("%w: runningLow must be larger than 0", ErrInvalidInput)
	}
	barcode := strings.TrimSpace(req.Barcode)
	if len(barcode) > maxBarcodeLength {
		return nil, fmt.Errorf("%w: barcode too long", ErrInvalidInput)
	}
	if barcode != "" {
		exists, err := s.store.BarcodeExists(ctx, barcode)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrBarcodeExists
		}
	}
	product := &Product{
		OwnerID:             p.ID,
		Name:                req.Name,
		Category:            req.Category,
		Barcode:             barcode,
		ExpirationDaysDelta: req.ExpirationDaysDelta,
		RunningLow:          req.RunningLow,
	}
	if err := s.store.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies the requested field changes to a product. Only the owner or
// an admin may update.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req UpdateRequest) (*Product, error) {
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := auth.Resource{Kind: auth.ResourceProduct, ID: id, OwnerID: product.OwnerID}
	if d := auth.Authorize(p, auth.ActionUpdate, res); !d.Allowed {
		return nil, auth.Denied(d.Field)
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		product.Name = *req.Name
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		product.Category = *req.Category
	}
	if req.Barcode != nil && strings.TrimSpace(*req.Barcode) != "" {
		barcode := strings.TrimSpace(*req.Barcode)
		if len(barcode) > maxBarcodeLength {
			return nil, fmt.Errorf("%w: barcode too long", ErrInvalidInput)
		}
		if barcode != product.Barcode {
			exists, err := s.store.BarcodeExists(ctx, barcode)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrBarcodeExists
			}
			product.Barcode = barcode
		}
	}
	if req.ExpirationDaysDelta != nil {
		if *req.ExpirationDaysDelta < 1 {
			return nil, fmt.Errorf("%w: expirationDaysDelta must be larger than 0", ErrInvalidInput)
		}
		product.ExpirationDaysDelta = *req.ExpirationDaysDelta
	}
	if req.RunningLow != nil {
		if *req.RunningLow < 1 {
			return nil, fmt.Errorf("%w: runningLow must be larger than 0", ErrInvalidInput)
		}
		product.RunningLow = *req.RunningLow
	}

	if err := s.store.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	res := auth.Resource{Kind: auth.ResourceProduct, ID: id, OwnerID: product.OwnerID}
	if d := auth.Authorize(p, auth.ActionDelete, res); !d.Allowed {
		return auth.Denied(d.Field)
	}
	return s.store.Delete(ctx, id)
}
