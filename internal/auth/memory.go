package auth

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryUserStore is an in-memory UserStore used by tests and local runs
// without a database.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  map[int64]*User
	nextID int64
	now    func() time.Time
}

var _ UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore constructs an empty in-memory directory. A nil clock
// defaults to time.Now.
func NewMemoryUserStore(clock func() time.Time) *MemoryUserStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryUserStore{
		users:  make(map[int64]*User),
		nextID: 1,
		now:    clock,
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	now := s.now().UTC()
	u.ID = s.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.nextID++
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		res = append(res, &clone)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryUserStore) Update(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return ErrEmailExists
		}
	}
	existing.Email = u.Email
	existing.Username = u.Username
	existing.Role = u.Role
	existing.UpdatedAt = s.now().UTC()
	u.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *MemoryUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	existing.PasswordHash = passwordHash
	existing.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// MemoryRevocationStore is an in-memory RevocationStore. Revocations are
// visible to every later IsRevoked call as soon as Revoke returns.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)

// NewMemoryRevocationStore constructs an empty in-memory revocation list. A
// nil clock defaults to time.Now.
func NewMemoryRevocationStore(clock func() time.Time) *MemoryRevocationStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     clock,
	}
}

func (s *MemoryRevocationStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	s.sweepLocked(now)
	// Idempotent: a second revoke keeps the original revocation time.
	if _, ok := s.revoked[token]; !ok {
		s.revoked[token] = now
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[token]
	return ok, nil
}

func (s *MemoryRevocationStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now.UTC()), nil
}

func (s *MemoryRevocationStore) sweepLocked(now time.Time) int64 {
	cutoff := now.Add(-TokenLifetime)
	var removed int64
	for token, revokedAt := range s.revoked {
		if revokedAt.Before(cutoff) {
			delete(s.revoked, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of revocation records currently held.
func (s *MemoryRevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}
