// Package plugin provides an extensible plugin system for Premium.
// Plugins can hook into tier transitions, gift code lifecycle, and sweep
// events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, system interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Tier transition hooks
// ──────────────────────────────────────────────────

// OnUpgraded is called when a user moves to a higher tier.
type OnUpgraded interface {
	Plugin
	OnUpgraded(ctx context.Context, userID, oldTier, newTier string) error
}

// OnDowngraded is called when a user moves to a lower tier.
type OnDowngraded interface {
	Plugin
	OnDowngraded(ctx context.Context, userID, oldTier, newTier string) error
}

// OnExpired is called when the sweeper demotes a user whose tier lapsed.
type OnExpired interface {
	Plugin
	OnExpired(ctx context.Context, userID, tier string) error
}

// ──────────────────────────────────────────────────
// Gift code hooks
// ──────────────────────────────────────────────────

// OnCodeRedeemed is called after a successful redemption.
type OnCodeRedeemed interface {
	Plugin
	OnCodeRedeemed(ctx context.Context, userID, code, tier string, expiresAt *time.Time) error
}

// OnGiftCodeCreated is called when a new gift code is created.
type OnGiftCodeCreated interface {
	Plugin
	OnGiftCodeCreated(ctx context.Context, code, tier string) error
}

// OnGiftCodeDisabled is called when a gift code is disabled.
type OnGiftCodeDisabled interface {
	Plugin
	OnGiftCodeDisabled(ctx context.Context, code string) error
}

// GiftCodeValidator provides custom validation that runs before the
// built-in redemption checks. A non-nil error rejects the redemption.
type GiftCodeValidator interface {
	Plugin
	ValidateGiftCode(ctx context.Context, userID string, code interface{}) error
}

// ──────────────────────────────────────────────────
// Sweep hooks
// ──────────────────────────────────────────────────

// OnSweepCompleted is called after each expiry sweep tick.
type OnSweepCompleted interface {
	Plugin
	OnSweepCompleted(ctx context.Context, demoted int, elapsed time.Duration) error
}
