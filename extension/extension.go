// Package extension provides the Forge extension adapter for Premium.
//
// It implements the forge.Extension interface to integrate Premium
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.premium" or "premium" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	premium "github.com/xraph/premium"
	"github.com/xraph/premium/store"
	"github.com/xraph/premium/store/memory"
	mongostore "github.com/xraph/premium/store/mongo"
	pgstore "github.com/xraph/premium/store/postgres"
	sqlitestore "github.com/xraph/premium/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "premium"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Premium tier entitlement and gift code engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Premium as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *premium.System
	store       store.Store
	groveDB     *grove.DB
	premiumOpts []premium.Option
}

// New creates a new Premium Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Premium instance.
// This is nil until Register is called.
func (e *Extension) Engine() *premium.System { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the premium engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(); err != nil {
		return err
	}

	eng, err := premium.New(e.store, e.config.premiumConfig(), e.premiumOpts...)
	if err != nil {
		return fmt.Errorf("premium: %w", err)
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*premium.System, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("premium: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("premium: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the engine's store in priority order: grove.DB
// with a configured driver, programmatic store, memory fallback.
func (e *Extension) resolveStore() error {
	if e.groveDB != nil {
		switch e.config.GroveDriver {
		case "postgres":
			e.store = pgstore.New(e.groveDB)
		case "sqlite":
			e.store = sqlitestore.New(e.groveDB)
		case "mongo":
			e.store = mongostore.New(e.groveDB)
		default:
			return fmt.Errorf("premium: unknown grove driver %q", e.config.GroveDriver)
		}
		return nil
	}

	if e.store == nil {
		e.store = memory.New()
	}
	return nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("premium: configuration is required but not found in config files; " +
				"ensure 'extensions.premium' or 'premium' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("premium: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("tiers", len(e.config.Tiers)),
		forge.F("default_tier", e.config.DefaultTier),
		forge.F("sweep_interval", e.config.SweepInterval),
		forge.F("cache_ttl", e.config.CacheTTL),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.premium" first (namespaced pattern).
	if cm.IsSet("extensions.premium") {
		if err := cm.Bind("extensions.premium", &cfg); err == nil {
			e.Logger().Debug("premium: loaded config from file",
				forge.F("key", "extensions.premium"),
			)
			return cfg, true
		}
		e.Logger().Warn("premium: failed to bind extensions.premium config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "premium" key.
	if cm.IsSet("premium") {
		if err := cm.Bind("premium", &cfg); err == nil {
			e.Logger().Debug("premium: loaded config from file",
				forge.F("key", "premium"),
			)
			return cfg, true
		}
		e.Logger().Warn("premium: failed to bind premium config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = defaults.Tiers
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = defaults.DefaultTier
	}
	if cfg.CacheEnabled == nil {
		cfg.CacheEnabled = defaults.CacheEnabled
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.CacheMaxSize == 0 {
		cfg.CacheMaxSize = defaults.CacheMaxSize
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = defaults.CodePrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// List and string fields: YAML takes precedence.
	if len(yamlConfig.Tiers) == 0 && len(programmaticConfig.Tiers) != 0 {
		yamlConfig.Tiers = programmaticConfig.Tiers
	}
	if yamlConfig.DefaultTier == "" && programmaticConfig.DefaultTier != "" {
		yamlConfig.DefaultTier = programmaticConfig.DefaultTier
	}
	if yamlConfig.CodePrefix == "" && programmaticConfig.CodePrefix != "" {
		yamlConfig.CodePrefix = programmaticConfig.CodePrefix
	}
	if yamlConfig.GroveDriver == "" && programmaticConfig.GroveDriver != "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.CacheEnabled == nil && programmaticConfig.CacheEnabled != nil {
		yamlConfig.CacheEnabled = programmaticConfig.CacheEnabled
	}
	if yamlConfig.CacheTTL == 0 && programmaticConfig.CacheTTL != 0 {
		yamlConfig.CacheTTL = programmaticConfig.CacheTTL
	}
	if yamlConfig.CacheMaxSize == 0 && programmaticConfig.CacheMaxSize != 0 {
		yamlConfig.CacheMaxSize = programmaticConfig.CacheMaxSize
	}
	if yamlConfig.SweepInterval == 0 && programmaticConfig.SweepInterval != 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
