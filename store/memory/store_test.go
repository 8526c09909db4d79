package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/id"
	"github.com/xraph/premium/store/memory"
	"github.com/xraph/premium/types"
	"github.com/xraph/premium/user"
)

func newCode(code string, maxUses int) *giftcode.GiftCode {
	return &giftcode.GiftCode{
		Entity:  types.NewEntity(),
		ID:      id.NewGiftCodeID(),
		Code:    code,
		Tier:    "premium",
		MaxUses: maxUses,
	}
}

func TestSetUserPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := &user.User{Entity: types.NewEntity(), ID: "u1", Tier: "free"}
	if err := s.SetUser(ctx, first); err != nil {
		t.Fatalf("SetUser failed: %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	created := got.CreatedAt

	time.Sleep(5 * time.Millisecond)
	second := &user.User{Entity: types.NewEntity(), ID: "u1", Tier: "premium"}
	if err := s.SetUser(ctx, second); err != nil {
		t.Fatalf("SetUser failed: %v", err)
	}

	got, err = s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Tier != "premium" {
		t.Errorf("expected tier updated, got %q", got.Tier)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("overwrite must keep created_at: %v != %v", got.CreatedAt, created)
	}
}

func TestGetUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	if err := s.SetUser(ctx, &user.User{ID: "u1", Tier: "premium", Metadata: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("SetUser failed: %v", err)
	}

	got, _ := s.GetUser(ctx, "u1")
	got.Tier = "mutated"
	got.Metadata["k"] = "mutated"

	fresh, _ := s.GetUser(ctx, "u1")
	if fresh.Tier != "premium" || fresh.Metadata["k"] != "v" {
		t.Error("store state must not be reachable through returned values")
	}
}

func TestCreateGiftCodeDuplicate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	if err := s.CreateGiftCode(ctx, newCode("GIFT-AAAA-BBBB", 1)); err != nil {
		t.Fatalf("CreateGiftCode failed: %v", err)
	}
	if err := s.CreateGiftCode(ctx, newCode("GIFT-AAAA-BBBB", 1)); !errors.Is(err, giftcode.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestUseGiftCodeNeverOverruns(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	const maxUses = 5
	if err := s.CreateGiftCode(ctx, newCode("GIFT-CCCC-DDDD", maxUses)); err != nil {
		t.Fatalf("CreateGiftCode failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.UseGiftCode(ctx, "GIFT-CCCC-DDDD")
			if err != nil {
				t.Errorf("UseGiftCode failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != maxUses {
		t.Errorf("expected exactly %d applied uses, got %d", maxUses, applied)
	}

	g, err := s.GetGiftCode(ctx, "GIFT-CCCC-DDDD")
	if err != nil {
		t.Fatalf("GetGiftCode failed: %v", err)
	}
	if g.UsedCount != maxUses {
		t.Errorf("UsedCount %d, want %d", g.UsedCount, maxUses)
	}
}

func TestUseGiftCodeMissing(t *testing.T) {
	s := memory.New()
	if _, err := s.UseGiftCode(context.Background(), "GIFT-NOPE-NOPE"); !errors.Is(err, giftcode.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListExpiredUsers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	_ = s.SetUser(ctx, &user.User{ID: "expired", Tier: "premium", ExpiresAt: &past})
	_ = s.SetUser(ctx, &user.User{ID: "active", Tier: "premium", ExpiresAt: &future})
	_ = s.SetUser(ctx, &user.User{ID: "forever", Tier: "premium"})

	expired, err := s.ListExpiredUsers(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredUsers failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "expired" {
		t.Errorf("expected only the lapsed user, got %v", expired)
	}
}
