package store

import (
	"context"
	"time"

	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/user"
)

// Store is the unified storage interface for all Premium entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// User methods
	SetUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID string) (*user.User, error)
	RemoveUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*user.User, error)
	ListUsersByTier(ctx context.Context, tier string) ([]*user.User, error)
	ListExpiredUsers(ctx context.Context, now time.Time) ([]*user.User, error)

	// Gift code methods
	CreateGiftCode(ctx context.Context, g *giftcode.GiftCode) error
	GetGiftCode(ctx context.Context, code string) (*giftcode.GiftCode, error)
	UseGiftCode(ctx context.Context, code string) (bool, error)
	DisableGiftCode(ctx context.Context, code string) error
	ListGiftCodes(ctx context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
