package giftcode_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/premium/cache"
	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/types"
)

type fakeStore struct {
	codes map[string]*giftcode.GiftCode

	getCalls  int
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: make(map[string]*giftcode.GiftCode)}
}

func (f *fakeStore) CreateGiftCode(_ context.Context, g *giftcode.GiftCode) error {
	if _, ok := f.codes[g.Code]; ok {
		return giftcode.ErrExists
	}
	cp := *g
	f.codes[g.Code] = &cp
	return nil
}

func (f *fakeStore) GetGiftCode(_ context.Context, code string) (*giftcode.GiftCode, error) {
	f.getCalls++
	g, ok := f.codes[code]
	if !ok {
		return nil, giftcode.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeStore) UseGiftCode(_ context.Context, code string) (bool, error) {
	g, ok := f.codes[code]
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

func (f *fakeStore) DisableGiftCode(_ context.Context, code string) error {
	g, ok := f.codes[code]
	if !ok {
		return giftcode.ErrNotFound
	}
	g.Disabled = true
	g.Touch()
	return nil
}

func (f *fakeStore) ListGiftCodes(_ context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error) {
	f.listCalls++
	var out []*giftcode.GiftCode
	for _, g := range f.codes {
		if filter.Matches(g) {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newService(store giftcode.Store) *giftcode.Service {
	return giftcode.NewService(store, cache.New(cache.Options{Enabled: true, TTL: time.Minute}), "GIFT")
}

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		code := giftcode.GenerateCode("GIFT")
		parts := strings.Split(code, "-")
		if len(parts) != 3 || parts[0] != "GIFT" || len(parts[1]) != 4 || len(parts[2]) != 4 {
			t.Fatalf("unexpected code format %q", code)
		}
		for _, c := range parts[1] + parts[2] {
			if strings.ContainsRune("0O1I", c) {
				t.Errorf("code %q contains ambiguous character %q", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected near-unique codes, got %d distinct of 50", len(seen))
	}
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	g, err := svc.Get(ctx, code)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.MaxUses != 1 {
		t.Errorf("expected MaxUses default 1, got %d", g.MaxUses)
	}
	if g.UsedCount != 0 {
		t.Errorf("expected UsedCount 0, got %d", g.UsedCount)
	}
	if g.Disabled {
		t.Error("new code should not be disabled")
	}
	if g.ID.IsNil() {
		t.Error("expected a generated ID")
	}
}

func TestCreateRejectsBadDuration(t *testing.T) {
	svc := newService(newFakeStore())

	_, err := svc.Create(context.Background(), giftcode.CreateOptions{Tier: "premium", Duration: "7x"})
	if !errors.Is(err, types.ErrDurationFormat) {
		t.Errorf("expected duration format error, got %v", err)
	}
}

func TestGetReadThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for range 3 {
		if _, err := svc.Get(ctx, code); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if store.getCalls != 1 {
		t.Errorf("expected 1 store read, got %d", store.getCalls)
	}

	if _, err := svc.Get(ctx, "GIFT-ZZZZ-ZZZZ"); !errors.Is(err, giftcode.ErrNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestRedeemSuccessWithDuration(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeStore())

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium", Duration: "7d", MaxUses: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	before := time.Now().UTC()
	res, err := svc.Redeem(ctx, code)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.Tier != "premium" {
		t.Errorf("expected tier premium, got %q", res.Tier)
	}
	if res.ExpiresAt == nil {
		t.Fatal("expected grant expiry")
	}
	want := before.Add(7 * 24 * time.Hour)
	if diff := res.ExpiresAt.Sub(want); diff < 0 || diff > time.Minute {
		t.Errorf("expected expiry ~7d out, got %v (diff %v)", res.ExpiresAt, diff)
	}

	// Second redemption of a single-use code fails with max uses.
	res, err = svc.Redeem(ctx, code)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if res.Success || res.Reason != giftcode.ReasonMaxUses {
		t.Errorf("expected max-uses failure, got %+v", res)
	}
}

func TestRedeemNoDurationGrantsPermanent(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeStore())

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "pro"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := svc.Redeem(ctx, code)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.ExpiresAt != nil {
		t.Errorf("expected permanent grant, got expiry %v", res.ExpiresAt)
	}
}

func TestRedeemFailureReasons(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	past := time.Now().UTC().Add(-time.Hour)

	disabled, _ := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"})
	if err := svc.Disable(ctx, disabled); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	expired, _ := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium", ExpiresAt: &past})

	exhausted, _ := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium", MaxUses: 1})
	if res, err := svc.Redeem(ctx, exhausted); err != nil || !res.Success {
		t.Fatalf("setup redemption failed: res=%+v err=%v", res, err)
	}

	tests := []struct {
		name   string
		code   string
		reason string
	}{
		{"unknown code", "GIFT-ZZZZ-ZZZZ", giftcode.ReasonInvalidCode},
		{"disabled code", disabled, giftcode.ReasonCodeDisabled},
		{"exhausted code", exhausted, giftcode.ReasonMaxUses},
		{"expired code", expired, giftcode.ReasonCodeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Same failure twice: redemption failures are idempotent.
			for range 2 {
				res, err := svc.Redeem(ctx, tt.code)
				if err != nil {
					t.Fatalf("Redeem failed: %v", err)
				}
				if res.Success {
					t.Fatal("expected failure")
				}
				if res.Reason != tt.reason {
					t.Errorf("expected reason %q, got %q", tt.reason, res.Reason)
				}
			}
		})
	}

	// Failures never push UsedCount past MaxUses.
	g, err := svc.Get(ctx, exhausted)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if g.UsedCount != g.MaxUses {
		t.Errorf("UsedCount %d exceeds MaxUses %d", g.UsedCount, g.MaxUses)
	}
}

func TestRedeemLostRaceReportsMaxUses(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium", MaxUses: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Simulate a concurrent redeemer winning between the check and the
	// conditional increment.
	store.codes[code].UsedCount = 1
	svc2 := newService(store) // fresh cache still holds the stale record in svc

	res, err := svc2.Redeem(ctx, code)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if res.Success || res.Reason != giftcode.ReasonMaxUses {
		t.Errorf("expected max-uses failure from lost race, got %+v", res)
	}
	if store.codes[code].UsedCount != 1 {
		t.Errorf("conditional use must not overrun, UsedCount=%d", store.codes[code].UsedCount)
	}
}

func TestListFilterCaching(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	if _, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "pro"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := svc.List(ctx, giftcode.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 codes, got %d", len(all))
	}

	premiumOnly, err := svc.List(ctx, giftcode.Filter{Tier: "premium"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(premiumOnly) != 1 {
		t.Errorf("expected 1 premium code, got %d", len(premiumOnly))
	}

	// Distinct filters cache under distinct keys; repeats hit the cache.
	if _, err := svc.List(ctx, giftcode.Filter{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := svc.List(ctx, giftcode.Filter{Tier: "premium"}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if store.listCalls != 2 {
		t.Errorf("expected 2 store list calls, got %d", store.listCalls)
	}
}

func TestListFiltersByUsage(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	if _, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium", MaxUses: 5}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Redeem(ctx, code); err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}

	five := 5
	bigCodes, err := svc.List(ctx, giftcode.Filter{MaxUses: &five})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bigCodes) != 1 || bigCodes[0].MaxUses != 5 {
		t.Errorf("MaxUses filter returned %d codes", len(bigCodes))
	}

	one := 1
	used, err := svc.List(ctx, giftcode.Filter{UsedCount: &one})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(used) != 1 || used[0].Code != code {
		t.Errorf("UsedCount filter returned %d codes", len(used))
	}
}

func TestFilterCacheKey(t *testing.T) {
	off := false
	zero, one := 0, 1
	tests := []struct {
		name string
		f    giftcode.Filter
		want string
	}{
		{"zero filter", giftcode.Filter{}, "giftCodes:all"},
		{"tier only", giftcode.Filter{Tier: "premium"}, `giftCodes:filter:{"tier":"premium"}`},
		{"disabled only", giftcode.Filter{Disabled: &off}, `giftCodes:filter:{"disabled":false}`},
		{"max uses only", giftcode.Filter{MaxUses: &one}, `giftCodes:filter:{"max_uses":1}`},
		{"unused codes", giftcode.Filter{Tier: "premium", UsedCount: &zero}, `giftCodes:filter:{"tier":"premium","used_count":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.CacheKey(); got != tt.want {
				t.Errorf("CacheKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisableInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	code, err := svc.Create(ctx, giftcode.CreateOptions{Tier: "premium"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Get(ctx, code); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := svc.Disable(ctx, code); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	g, err := svc.Get(ctx, code)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !g.Disabled {
		t.Error("expected fresh read to see disabled flag")
	}
}
