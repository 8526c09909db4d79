package user

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/premium/types"
)

// ErrNotFound is returned by stores when no user exists for an ID.
var ErrNotFound = errors.New("user: not found")

// User is a premium entitlement record for a single external user.
// ID is the caller's own user identifier, not a generated one.
type User struct {
	types.Entity
	ID        string            `json:"id"`
	Tier      string            `json:"tier"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// HasExpiry reports whether the user's tier is time-limited.
func (u *User) HasExpiry() bool {
	return u.ExpiresAt != nil
}

// IsExpired reports whether the user's tier has lapsed as of now.
// Users without an expiry never expire.
func (u *User) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && !now.Before(*u.ExpiresAt)
}

type Store interface {
	SetUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, userID string) (*User, error)
	RemoveUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*User, error)
	ListUsersByTier(ctx context.Context, tier string) ([]*User, error)
	ListExpiredUsers(ctx context.Context, now time.Time) ([]*User, error)
}
