package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local runs without a
// database.
type MemoryStore struct {
	mu       sync.Mutex
	products map[int64]*Product
	nextID   int64
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory product store. A nil clock
// defaults to time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		products: make(map[int64]*Product),
		nextID:   1,
		now:      clock,
	}
}

func (s *MemoryStore) Create(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Barcode != "" {
		for _, existing := range s.products {
			if existing.Barcode == p.Barcode {
				return ErrBarcodeExists
			}
		}
	}
	now := s.now().UTC()
	p.ID = s.nextID
	p.CreatedAt = now
	p.UpdatedAt = now
	s.nextID++
	clone := *p
	s.products[p.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *MemoryStore) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Barcode != "" && p.Barcode == barcode {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Barcode != "" && p.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Product, error) {
	return s.listWhere(func(*Product) bool { return true })
}

func (s *MemoryStore) ListByName(ctx context.Context, name string) ([]*Product, error) {
	return s.listWhere(func(p *Product) bool { return p.Name == name })
}

func (s *MemoryStore) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	return s.listWhere(func(p *Product) bool { return p.Category == category })
}

func (s *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var res []string
	for _, p := range s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			res = append(res, p.Category)
		}
	}
	sort.Strings(res)
	return res, nil
}

func (s *MemoryStore) Update(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.Barcode != "" {
		for id, other := range s.products {
			if id != p.ID && other.Barcode == p.Barcode {
				return ErrBarcodeExists
			}
		}
	}
	existing.Name = p.Name
	existing.Category = p.Category
	existing.ExpirationDaysDelta = p.ExpirationDaysDelta
	existing.RunningLow = p.RunningLow
	existing.Barcode = p.Barcode
	existing.UpdatedAt = s.now().UTC()
	p.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) listWhere(keep func(*Product) bool) ([]*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*Product
	for _, p := range s.products {
		if keep(p) {
			clone := *p
			res = append(res, &clone)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
