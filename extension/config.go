package extension

import (
	"time"

	premium "github.com/xraph/premium"
)

// Config holds the Premium extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.premium" or "premium" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Tiers is the entitlement ladder, lowest rank first.
	Tiers []premium.Tier `json:"tiers" mapstructure:"tiers" yaml:"tiers"`

	// DefaultTier is the tier lapsed users fall back to (default: "free").
	DefaultTier string `json:"default_tier" mapstructure:"default_tier" yaml:"default_tier"`

	// CacheEnabled toggles the in-process lookaside cache (default: true).
	CacheEnabled *bool `json:"cache_enabled" mapstructure:"cache_enabled" yaml:"cache_enabled"`

	// CacheTTL is how long cached entries stay fresh (default: 5m).
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheMaxSize caps the number of cached entries (default: 10000).
	CacheMaxSize int `json:"cache_max_size" mapstructure:"cache_max_size" yaml:"cache_max_size"`

	// SweepInterval is how often the expiry sweeper runs (default: 1m).
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// CodePrefix is the prefix for generated gift codes (default: "GIFT").
	CodePrefix string `json:"code_prefix" mapstructure:"code_prefix" yaml:"code_prefix"`

	// Events toggles individual lifecycle notifications.
	Events premium.EventConfig `json:"events" mapstructure:"events" yaml:"events"`

	// GroveDriver selects the backend driver ("postgres", "sqlite" or
	// "mongo") for the grove.DB passed via WithGroveDB. When empty the
	// extension keeps the programmatically provided store.
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	base := premium.DefaultConfig()
	enabled := base.Cache.Enabled
	return Config{
		Tiers:         base.Tiers,
		DefaultTier:   base.DefaultTier,
		CacheEnabled:  &enabled,
		CacheTTL:      base.Cache.TTL,
		CacheMaxSize:  base.Cache.MaxSize,
		SweepInterval: base.SweepInterval,
		CodePrefix:    base.CodePrefix,
	}
}

// premiumConfig converts the extension config into the engine config.
func (c Config) premiumConfig() premium.Config {
	enabled := true
	if c.CacheEnabled != nil {
		enabled = *c.CacheEnabled
	}
	return premium.Config{
		Tiers:       c.Tiers,
		DefaultTier: c.DefaultTier,
		Cache: premium.CacheConfig{
			Enabled: enabled,
			TTL:     c.CacheTTL,
			MaxSize: c.CacheMaxSize,
		},
		Events:        c.Events,
		SweepInterval: c.SweepInterval,
		CodePrefix:    c.CodePrefix,
	}
}
