package giftcode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xraph/premium/id"
	"github.com/xraph/premium/types"
)

// GiftCode is a redeemable token granting a tier for a bounded or
// permanent duration. The code string is immutable once created; only
// UsedCount, Disabled and UpdatedAt change afterwards.
type GiftCode struct {
	types.Entity
	ID        id.GiftCodeID     `json:"id"`
	Code      string            `json:"code"`
	Tier      string            `json:"tier"`
	Duration  string            `json:"duration,omitempty"` // grant duration, empty = permanent
	MaxUses   int               `json:"max_uses"`
	UsedCount int               `json:"used_count"`
	Disabled  bool              `json:"disabled"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"` // code validity, not the grant
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsRedeemable reports whether the code can still be redeemed as of now.
func (g *GiftCode) IsRedeemable(now time.Time) bool {
	if g.Disabled || g.UsedCount >= g.MaxUses {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

// CreateOptions are the caller-supplied fields for a new gift code.
type CreateOptions struct {
	Tier      string            `json:"tier"`
	Duration  string            `json:"duration,omitempty"`
	MaxUses   int               `json:"max_uses,omitempty"` // defaults to 1
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Filter is an equality match over gift code fields. Nil pointer fields
// and the empty tier are ignored.
type Filter struct {
	Tier      string `json:"tier,omitempty"`
	Disabled  *bool  `json:"disabled,omitempty"`
	MaxUses   *int   `json:"max_uses,omitempty"`
	UsedCount *int   `json:"used_count,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Tier == "" && f.Disabled == nil && f.MaxUses == nil && f.UsedCount == nil
}

// Matches reports whether g satisfies every set field of the filter.
func (f Filter) Matches(g *GiftCode) bool {
	if f.Tier != "" && g.Tier != f.Tier {
		return false
	}
	if f.Disabled != nil && g.Disabled != *f.Disabled {
		return false
	}
	if f.MaxUses != nil && g.MaxUses != *f.MaxUses {
		return false
	}
	if f.UsedCount != nil && g.UsedCount != *f.UsedCount {
		return false
	}
	return true
}

// CacheKey returns a canonical cache key for list results under this
// filter. Distinct filters never collide because the serialization is
// field-ordered.
func (f Filter) CacheKey() string {
	if f.IsZero() {
		return "giftCodes:all"
	}
	b, _ := json.Marshal(f)
	return "giftCodes:filter:" + string(b)
}

// Redemption failure reasons, returned verbatim to callers.
const (
	ReasonInvalidCode  = "Invalid gift code"
	ReasonCodeDisabled = "Gift code has been disabled"
	ReasonMaxUses      = "Gift code has reached maximum uses"
	ReasonCodeExpired  = "Gift code has expired"
)

// RedemptionResult is the outcome of a redemption attempt. Failed
// business checks are results, not errors; only system malfunctions
// surface as errors.
type RedemptionResult struct {
	Success   bool       `json:"success"`
	Tier      string     `json:"tier"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ErrNotFound is returned by stores when no gift code exists for a
// code string. ErrExists is returned when a create collides with an
// existing code.
var (
	ErrNotFound = errors.New("giftcode: not found")
	ErrExists   = errors.New("giftcode: code already exists")
)

type Store interface {
	CreateGiftCode(ctx context.Context, g *GiftCode) error
	GetGiftCode(ctx context.Context, code string) (*GiftCode, error)
	// UseGiftCode increments the use count only while it is below the
	// maximum, reporting whether the increment applied.
	UseGiftCode(ctx context.Context, code string) (bool, error)
	DisableGiftCode(ctx context.Context, code string) error
	ListGiftCodes(ctx context.Context, filter Filter) ([]*GiftCode, error)
}
