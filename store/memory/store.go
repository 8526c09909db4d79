// Package memory provides an in-memory Store for tests and development.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/user"
)

type Store struct {
	mu sync.RWMutex

	// User storage
	users map[string]*user.User

	// Gift code storage, keyed by code string
	codes map[string]*giftcode.GiftCode

	closed bool
}

func New() *Store {
	return &Store{
		users: make(map[string]*user.User),
		codes: make(map[string]*giftcode.GiftCode),
	}
}

// User Store implementation

func (s *Store) SetUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneUser(u)
	if existing, ok := s.users[u.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	s.users[u.ID] = cp
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return cloneUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (s *Store) RemoveUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return user.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) ListUsersByTier(_ context.Context, tier string) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*user.User
	for _, u := range s.users {
		if u.Tier == tier {
			out = append(out, cloneUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) ListExpiredUsers(_ context.Context, now time.Time) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*user.User
	for _, u := range s.users {
		if u.IsExpired(now) {
			out = append(out, cloneUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

// Gift code Store implementation

func (s *Store) CreateGiftCode(_ context.Context, g *giftcode.GiftCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[g.Code]; exists {
		return giftcode.ErrExists
	}
	s.codes[g.Code] = cloneCode(g)
	return nil
}

func (s *Store) GetGiftCode(_ context.Context, code string) (*giftcode.GiftCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.codes[code]; ok {
		return cloneCode(g), nil
	}
	return nil, giftcode.ErrNotFound
}

func (s *Store) UseGiftCode(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.codes[code]
	if !ok {
		return false, giftcode.ErrNotFound
	}
	if g.UsedCount >= g.MaxUses {
		return false, nil
	}
	g.UsedCount++
	g.Touch()
	return true, nil
}

func (s *Store) DisableGiftCode(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.codes[code]
	if !ok {
		return giftcode.ErrNotFound
	}
	g.Disabled = true
	g.Touch()
	return nil
}

func (s *Store) ListGiftCodes(_ context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*giftcode.GiftCode
	for _, g := range s.codes {
		if filter.Matches(g) {
			out = append(out, cloneCode(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("memory: store is closed")
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneUser(u *user.User) *user.User {
	cp := *u
	if u.ExpiresAt != nil {
		t := *u.ExpiresAt
		cp.ExpiresAt = &t
	}
	if u.Metadata != nil {
		cp.Metadata = make(map[string]string, len(u.Metadata))
		for k, v := range u.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func cloneCode(g *giftcode.GiftCode) *giftcode.GiftCode {
	cp := *g
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		cp.ExpiresAt = &t
	}
	if g.Metadata != nil {
		cp.Metadata = make(map[string]string, len(g.Metadata))
		for k, v := range g.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func sortUsers(users []*user.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
