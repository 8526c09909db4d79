package premium

import (
	"fmt"
	"time"

	"github.com/xraph/premium/types"
)

// Tier describes one entitlement level. Order matters: tiers are ranked
// by their position in Config.Tiers, lowest first.
type Tier struct {
	// Name is the tier identifier, e.g. "free", "premium".
	Name string `json:"name" yaml:"name"`

	// ExpiresIn is the default grant duration for this tier as a
	// compact duration string ("30d", "1d12h"). Empty means grants to
	// this tier never expire unless the caller says otherwise.
	ExpiresIn string `json:"expires_in,omitempty" yaml:"expires_in"`

	// Price is informational and not charged by this library.
	Price types.Money `json:"price,omitempty" yaml:"price"`

	// Features this tier unlocks. The special value "all" unlocks
	// every feature.
	Features []string `json:"features,omitempty" yaml:"features"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata"`
}

// CacheConfig tunes the in-process lookaside cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
	MaxSize int           `json:"max_size" yaml:"max_size"`
}

// EventConfig toggles individual notification kinds. The zero value
// emits everything.
type EventConfig struct {
	DisableUpgraded     bool `json:"disable_upgraded" yaml:"disable_upgraded"`
	DisableDowngraded   bool `json:"disable_downgraded" yaml:"disable_downgraded"`
	DisableExpired      bool `json:"disable_expired" yaml:"disable_expired"`
	DisableCodeRedeemed bool `json:"disable_code_redeemed" yaml:"disable_code_redeemed"`
}

// Config is the full Premium system configuration.
type Config struct {
	// Tiers in ascending rank order. Must include DefaultTier.
	Tiers []Tier `json:"tiers" yaml:"tiers"`

	// DefaultTier is where expired users land. Defaults to "free".
	DefaultTier string `json:"default_tier" yaml:"default_tier"`

	Cache  CacheConfig `json:"cache" yaml:"cache"`
	Events EventConfig `json:"events" yaml:"events"`

	// SweepInterval is how often the expiry sweeper runs. Defaults to
	// one minute.
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval"`

	// CodePrefix is the constant prefix for generated gift codes.
	// Defaults to "GIFT".
	CodePrefix string `json:"code_prefix" yaml:"code_prefix"`
}

// DefaultConfig returns a two-tier configuration suitable for getting
// started.
func DefaultConfig() Config {
	return Config{
		Tiers: []Tier{
			{Name: "free"},
			{Name: "premium", ExpiresIn: "30d", Features: []string{"all"}},
		},
		DefaultTier: "free",
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
			MaxSize: 10000,
		},
		SweepInterval: time.Minute,
		CodePrefix:    "GIFT",
	}
}

// normalize fills in defaults for unset fields.
func (c *Config) normalize() {
	if c.DefaultTier == "" {
		c.DefaultTier = "free"
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.CodePrefix == "" {
		c.CodePrefix = "GIFT"
	}
}

// Validate checks the configuration for fatal problems. It is called by
// New; a failed validation aborts startup.
func (c *Config) Validate() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("%w: at least one tier is required", ErrConfigInvalid)
	}

	seen := make(map[string]bool, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("%w: tier with empty name", ErrConfigInvalid)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate tier %q", ErrConfigInvalid, t.Name)
		}
		seen[t.Name] = true

		if t.ExpiresIn != "" {
			if _, err := types.ParseDuration(t.ExpiresIn); err != nil {
				return fmt.Errorf("%w: tier %q expires_in: %v", ErrConfigInvalid, t.Name, err)
			}
		}
	}

	if !seen[c.DefaultTier] {
		return fmt.Errorf("%w: default tier %q is not configured", ErrConfigInvalid, c.DefaultTier)
	}

	return nil
}

// tier returns the configured tier by name.
func (c *Config) tier(name string) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}
