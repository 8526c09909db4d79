package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/premium/cache"
	"github.com/xraph/premium/user"
)

// fakeStore is a minimal in-memory Store that counts reads so tests can
// tell cache hits from store hits.
type fakeStore struct {
	users map[string]*user.User

	getCalls         int
	listCalls        int
	listTierCalls    int
	listExpiredCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*user.User)}
}

func (f *fakeStore) SetUser(_ context.Context, u *user.User) error {
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (*user.User, error) {
	f.getCalls++
	u, ok := f.users[userID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) RemoveUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return user.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]*user.User, error) {
	f.listCalls++
	out := make([]*user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) ListUsersByTier(_ context.Context, tier string) ([]*user.User, error) {
	f.listTierCalls++
	var out []*user.User
	for _, u := range f.users {
		if u.Tier == tier {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpiredUsers(_ context.Context, now time.Time) ([]*user.User, error) {
	f.listExpiredCalls++
	var out []*user.User
	for _, u := range f.users {
		if u.IsExpired(now) {
			out = append(out, u)
		}
	}
	return out, nil
}

func newService(store user.Store) *user.Service {
	return user.NewService(store, cache.New(cache.Options{Enabled: true, TTL: time.Minute}))
}

func TestServiceGetReadThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	if err := svc.Set(ctx, &user.User{ID: "u1", Tier: "premium"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Set populated the cache, so neither read should hit the store.
	for range 2 {
		u, err := svc.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if u.Tier != "premium" {
			t.Errorf("expected premium, got %q", u.Tier)
		}
	}
	if store.getCalls != 0 {
		t.Errorf("expected 0 store reads, got %d", store.getCalls)
	}
}

func TestServiceGetMissPopulatesCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.users["u1"] = &user.User{ID: "u1", Tier: "pro"}
	svc := newService(store)

	for range 3 {
		if _, err := svc.Get(ctx, "u1"); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if store.getCalls != 1 {
		t.Errorf("expected 1 store read, got %d", store.getCalls)
	}
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newService(newFakeStore())

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("expected store not-found error, got %v", err)
	}
}

func TestServiceSetInvalidatesLists(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	if err := svc.Set(ctx, &user.User{ID: "u1", Tier: "premium"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Prime the list caches.
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := svc.ListByTier(ctx, "premium"); err != nil {
		t.Fatalf("ListByTier failed: %v", err)
	}

	if err := svc.Set(ctx, &user.User{ID: "u2", Tier: "premium"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users after invalidation, got %d", len(users))
	}
	if store.listCalls != 2 {
		t.Errorf("expected list caches dropped on write, store listCalls=%d", store.listCalls)
	}

	byTier, err := svc.ListByTier(ctx, "premium")
	if err != nil {
		t.Fatalf("ListByTier failed: %v", err)
	}
	if len(byTier) != 2 {
		t.Errorf("expected 2 premium users, got %d", len(byTier))
	}
}

func TestServiceRemove(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	if err := svc.Set(ctx, &user.User{ID: "u1", Tier: "premium"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := svc.Remove(ctx, "u1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := svc.Get(ctx, "u1"); err == nil {
		t.Error("expected not-found after Remove")
	}

	if err := svc.Remove(ctx, "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("expected not-found removing unknown user, got %v", err)
	}
}

func TestServiceListExpiredAlwaysHitsStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	store := newFakeStore()
	store.users["u1"] = &user.User{ID: "u1", Tier: "premium", ExpiresAt: &past}
	store.users["u2"] = &user.User{ID: "u2", Tier: "premium"}
	svc := newService(store)

	for range 2 {
		expired, err := svc.ListExpired(ctx, now)
		if err != nil {
			t.Fatalf("ListExpired failed: %v", err)
		}
		if len(expired) != 1 || expired[0].ID != "u1" {
			t.Errorf("expected only u1 expired, got %v", expired)
		}
	}
	if store.listExpiredCalls != 2 {
		t.Errorf("expected every ListExpired to reach the store, got %d calls", store.listExpiredCalls)
	}
}

func TestUserIsExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, false},
		{"future expiry", &future, false},
		{"past expiry", &past, true},
		{"exact boundary", &now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &user.User{ID: "u", Tier: "premium", ExpiresAt: tt.expiresAt}
			if got := u.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired = %v, want %v", got, tt.want)
			}
		})
	}
}
