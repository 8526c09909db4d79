package user

import (
	"context"
	"time"

	"github.com/xraph/premium/cache"
)

// Cache keys used by Service. Single-user entries live under "user:{id}";
// list entries are invalidated wholesale on every write.
const (
	keyAll     = "users:all"
	keyExpired = "users:expired"
)

// expiredTTL bounds how stale the expired-user list may be. The sweeper
// runs on a comparable interval, so a shorter TTL buys nothing.
const expiredTTL = 60 * time.Second

func keyUser(userID string) string { return "user:" + userID }

func keyTier(tier string) string { return "users:tier:" + tier }

// Service wraps a Store with a read-through, write-invalidate cache.
// Reads of a single user populate the cache on miss; writes go to the
// store first and only then touch the cache, so a failed write never
// leaves a cache entry the store does not back.
type Service struct {
	store Store
	cache *cache.Cache
}

// NewService returns a Service backed by store and c.
func NewService(store Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// Set writes u to the store and refreshes the cache. List entries are
// dropped rather than rebuilt; the next list read repopulates them.
func (s *Service) Set(ctx context.Context, u *User) error {
	if err := s.store.SetUser(ctx, u); err != nil {
		return err
	}

	s.cache.Set(keyUser(u.ID), u)
	s.cache.Delete(keyAll)
	s.cache.Delete(keyTier(u.Tier))
	s.cache.Delete(keyExpired)

	return nil
}

// Get returns the user with userID, from cache when possible.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	if v, ok := s.cache.Get(keyUser(userID)); ok {
		return v.(*User), nil
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(keyUser(userID), u)

	return u, nil
}

// Remove deletes the user with userID from the store and cache. The
// user is read first so the right tier list can be invalidated.
func (s *Service) Remove(ctx context.Context, userID string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveUser(ctx, userID); err != nil {
		return err
	}

	s.cache.Delete(keyUser(userID))
	s.cache.Delete(keyAll)
	s.cache.Delete(keyTier(u.Tier))
	s.cache.Delete(keyExpired)

	return nil
}

// List returns all users, from cache when possible.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	if v, ok := s.cache.Get(keyAll); ok {
		return v.([]*User), nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(keyAll, users)

	return users, nil
}

// ListByTier returns all users on tier, from cache when possible.
func (s *Service) ListByTier(ctx context.Context, tier string) ([]*User, error) {
	key := keyTier(tier)
	if v, ok := s.cache.Get(key); ok {
		return v.([]*User), nil
	}

	users, err := s.store.ListUsersByTier(ctx, tier)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, users)

	return users, nil
}

// ListExpired returns all users whose tier lapsed before now. The store
// is always consulted so the sweeper never acts on a stale snapshot; the
// result is cached briefly for read-side callers.
func (s *Service) ListExpired(ctx context.Context, now time.Time) ([]*User, error) {
	users, err := s.store.ListExpiredUsers(ctx, now)
	if err != nil {
		return nil, err
	}

	s.cache.SetTTL(keyExpired, users, expiredTTL)

	return users, nil
}

// Invalidate drops every cache entry that could mention userID.
func (s *Service) Invalidate(userID, tier string) {
	s.cache.Delete(keyUser(userID))
	s.cache.Delete(keyAll)
	s.cache.Delete(keyTier(tier))
	s.cache.Delete(keyExpired)
}
