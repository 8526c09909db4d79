package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onUpgraded         []OnUpgraded
	onDowngraded       []OnDowngraded
	onExpired          []OnExpired
	onCodeRedeemed     []OnCodeRedeemed
	onGiftCodeCreated  []OnGiftCodeCreated
	onGiftCodeDisabled []OnGiftCodeDisabled
	onSweepCompleted   []OnSweepCompleted
	giftCodeValidators []GiftCodeValidator
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnUpgraded); ok {
		r.onUpgraded = append(r.onUpgraded, v)
	}
	if v, ok := p.(OnDowngraded); ok {
		r.onDowngraded = append(r.onDowngraded, v)
	}
	if v, ok := p.(OnExpired); ok {
		r.onExpired = append(r.onExpired, v)
	}
	if v, ok := p.(OnCodeRedeemed); ok {
		r.onCodeRedeemed = append(r.onCodeRedeemed, v)
	}
	if v, ok := p.(OnGiftCodeCreated); ok {
		r.onGiftCodeCreated = append(r.onGiftCodeCreated, v)
	}
	if v, ok := p.(OnGiftCodeDisabled); ok {
		r.onGiftCodeDisabled = append(r.onGiftCodeDisabled, v)
	}
	if v, ok := p.(OnSweepCompleted); ok {
		r.onSweepCompleted = append(r.onSweepCompleted, v)
	}
	if v, ok := p.(GiftCodeValidator); ok {
		r.giftCodeValidators = append(r.giftCodeValidators, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnUpgraded)(nil)).Elem(), "OnUpgraded")
	checkInterface(reflect.TypeOf((*OnDowngraded)(nil)).Elem(), "OnDowngraded")
	checkInterface(reflect.TypeOf((*OnExpired)(nil)).Elem(), "OnExpired")
	checkInterface(reflect.TypeOf((*OnCodeRedeemed)(nil)).Elem(), "OnCodeRedeemed")
	checkInterface(reflect.TypeOf((*OnGiftCodeCreated)(nil)).Elem(), "OnGiftCodeCreated")
	checkInterface(reflect.TypeOf((*OnGiftCodeDisabled)(nil)).Elem(), "OnGiftCodeDisabled")
	checkInterface(reflect.TypeOf((*OnSweepCompleted)(nil)).Elem(), "OnSweepCompleted")
	checkInterface(reflect.TypeOf((*GiftCodeValidator)(nil)).Elem(), "GiftCodeValidator")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GiftCodeValidators returns all registered gift code validators.
func (r *Registry) GiftCodeValidators() []GiftCodeValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]GiftCodeValidator, len(r.giftCodeValidators))
	copy(result, r.giftCodeValidators)
	return result
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, system interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, system)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUpgraded emits a tier upgrade event.
func (r *Registry) EmitUpgraded(ctx context.Context, userID, oldTier, newTier string) {
	r.mu.RLock()
	plugins := r.onUpgraded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUpgraded(ctx, userID, oldTier, newTier)
		}); err != nil {
			r.logger.Warn("plugin OnUpgraded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDowngraded emits a tier downgrade event.
func (r *Registry) EmitDowngraded(ctx context.Context, userID, oldTier, newTier string) {
	r.mu.RLock()
	plugins := r.onDowngraded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDowngraded(ctx, userID, oldTier, newTier)
		}); err != nil {
			r.logger.Warn("plugin OnDowngraded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitExpired emits a tier expiry event.
func (r *Registry) EmitExpired(ctx context.Context, userID, tier string) {
	r.mu.RLock()
	plugins := r.onExpired
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnExpired(ctx, userID, tier)
		}); err != nil {
			r.logger.Warn("plugin OnExpired failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCodeRedeemed emits a gift code redemption event.
func (r *Registry) EmitCodeRedeemed(ctx context.Context, userID, code, tier string, expiresAt *time.Time) {
	r.mu.RLock()
	plugins := r.onCodeRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCodeRedeemed(ctx, userID, code, tier, expiresAt)
		}); err != nil {
			r.logger.Warn("plugin OnCodeRedeemed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitGiftCodeCreated emits a gift code created event.
func (r *Registry) EmitGiftCodeCreated(ctx context.Context, code, tier string) {
	r.mu.RLock()
	plugins := r.onGiftCodeCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnGiftCodeCreated(ctx, code, tier)
		}); err != nil {
			r.logger.Warn("plugin OnGiftCodeCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitGiftCodeDisabled emits a gift code disabled event.
func (r *Registry) EmitGiftCodeDisabled(ctx context.Context, code string) {
	r.mu.RLock()
	plugins := r.onGiftCodeDisabled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnGiftCodeDisabled(ctx, code)
		}); err != nil {
			r.logger.Warn("plugin OnGiftCodeDisabled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSweepCompleted emits a sweep completion event.
func (r *Registry) EmitSweepCompleted(ctx context.Context, demoted int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onSweepCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSweepCompleted(ctx, demoted, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnSweepCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout runs fn with a bounded execution time so a stuck
// plugin cannot wedge the caller.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
