package extension

import (
	"time"

	"github.com/xraph/grove"

	premium "github.com/xraph/premium"
	"github.com/xraph/premium/plugin"
	"github.com/xraph/premium/store"
)

// Option configures the Premium Forge extension.
type Option func(*Extension)

// WithStore sets the store for the premium engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets a grove.DB for the engine's store. The backend is
// picked by the driver name: "postgres", "sqlite" or "mongo".
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

// WithPremiumOption passes a premium.Option through to the underlying engine.
func WithPremiumOption(opt premium.Option) Option {
	return func(e *Extension) {
		e.premiumOpts = append(e.premiumOpts, opt)
	}
}

// WithPlugin registers a premium plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.premiumOpts = append(e.premiumOpts, premium.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithTiers sets the entitlement ladder, lowest rank first.
func WithTiers(tiers ...premium.Tier) Option {
	return func(e *Extension) { e.config.Tiers = tiers }
}

// WithDefaultTier sets the tier lapsed users fall back to.
func WithDefaultTier(tier string) Option {
	return func(e *Extension) { e.config.DefaultTier = tier }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithSweepInterval sets how often the expiry sweeper runs.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepInterval = d }
}

// WithCacheTTL sets how long cached entries stay fresh.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.CacheTTL = d }
}

// WithCodePrefix sets the prefix for generated gift codes.
func WithCodePrefix(prefix string) Option {
	return func(e *Extension) { e.config.CodePrefix = prefix }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
