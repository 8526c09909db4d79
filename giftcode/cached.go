package giftcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/premium/cache"
	"github.com/xraph/premium/id"
	"github.com/xraph/premium/types"
)

func keyCode(code string) string { return "giftCode:" + code }

// Service wraps a Store with a read-through cache and implements the
// redemption pipeline. It validates and mutates gift codes only; the
// entitlement write that a successful redemption implies belongs to the
// caller.
type Service struct {
	store  Store
	cache  *cache.Cache
	prefix string
}

// NewService returns a Service backed by store and c. Generated codes
// carry prefix, e.g. "GIFT" for GIFT-XXXX-XXXX.
func NewService(store Store, c *cache.Cache, prefix string) *Service {
	return &Service{store: store, cache: c, prefix: prefix}
}

// Create generates a fresh code and persists it, returning the code
// string. The grant duration is validated up front so a malformed value
// fails here instead of at first redemption.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (string, error) {
	if opts.Duration != "" {
		if _, err := types.ParseDuration(opts.Duration); err != nil {
			return "", fmt.Errorf("giftcode: duration %q: %w", opts.Duration, err)
		}
	}

	maxUses := opts.MaxUses
	if maxUses <= 0 {
		maxUses = 1
	}

	g := &GiftCode{
		Entity:    types.NewEntity(),
		ID:        id.NewGiftCodeID(),
		Code:      GenerateCode(s.prefix),
		Tier:      opts.Tier,
		Duration:  opts.Duration,
		MaxUses:   maxUses,
		ExpiresAt: opts.ExpiresAt,
		Metadata:  opts.Metadata,
	}

	if err := s.store.CreateGiftCode(ctx, g); err != nil {
		return "", err
	}

	s.cache.Delete(Filter{}.CacheKey())

	return g.Code, nil
}

// Get returns the gift code record, from cache when possible. A missing
// code surfaces the store's not-found error.
func (s *Service) Get(ctx context.Context, code string) (*GiftCode, error) {
	if v, ok := s.cache.Get(keyCode(code)); ok {
		return v.(*GiftCode), nil
	}

	g, err := s.store.GetGiftCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cache.Set(keyCode(code), g)

	return g, nil
}

// Redeem runs the ordered validation pipeline against a fresh read of
// the code and, when every check passes, consumes one use. Business
// failures come back as an unsuccessful result with a reason; the error
// return is reserved for store and parse malfunctions.
func (s *Service) Redeem(ctx context.Context, code string) (*RedemptionResult, error) {
	g, err := s.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(ReasonInvalidCode), nil
		}
		return nil, err
	}

	if g.Disabled {
		return failure(ReasonCodeDisabled), nil
	}
	if g.UsedCount >= g.MaxUses {
		return failure(ReasonMaxUses), nil
	}
	if g.ExpiresAt != nil && !time.Now().Before(*g.ExpiresAt) {
		return failure(ReasonCodeExpired), nil
	}

	var expiresAt *time.Time
	if g.Duration != "" {
		d, err := types.ParseDuration(g.Duration)
		if err != nil {
			return nil, fmt.Errorf("giftcode: duration %q: %w", g.Duration, err)
		}
		t := time.Now().UTC().Add(d)
		expiresAt = &t
	}

	applied, err := s.store.UseGiftCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(keyCode(code))
	s.cache.Delete(Filter{}.CacheKey())

	if !applied {
		// Lost the race for the last remaining use.
		return failure(ReasonMaxUses), nil
	}

	return &RedemptionResult{Success: true, Tier: g.Tier, ExpiresAt: expiresAt}, nil
}

// Disable marks the code unredeemable. There is no re-enable.
func (s *Service) Disable(ctx context.Context, code string) error {
	if err := s.store.DisableGiftCode(ctx, code); err != nil {
		return err
	}

	s.cache.Delete(keyCode(code))
	s.cache.Delete(Filter{}.CacheKey())

	return nil
}

// List returns gift codes matching filter, cached per distinct filter
// shape. Writes invalidate only the single-code entry and the
// unfiltered list; a previously cached filtered list may serve stale
// results until its TTL lapses.
func (s *Service) List(ctx context.Context, filter Filter) ([]*GiftCode, error) {
	key := filter.CacheKey()
	if v, ok := s.cache.Get(key); ok {
		return v.([]*GiftCode), nil
	}

	codes, err := s.store.ListGiftCodes(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, codes)

	return codes, nil
}

func failure(reason string) *RedemptionResult {
	return &RedemptionResult{Success: false, Reason: reason}
}
