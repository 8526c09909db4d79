package premium

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/premium/cache"
	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/plugin"
	"github.com/xraph/premium/store"
	"github.com/xraph/premium/user"
)

// System is the premium entitlement engine.
type System struct {
	store   store.Store
	cfg     Config
	ranks   map[string]int // tier name -> declaration index
	plugins *plugin.Registry
	logger  *slog.Logger

	cache *cache.Cache
	users *user.Service
	codes *giftcode.Service

	// userLocks serializes read-modify-write sequences per user so two
	// concurrent writes to the same ID cannot interleave and misreport
	// a tier transition.
	userLocks [64]sync.Mutex

	// Background sweeper
	stopChan  chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// UserUpdate carries the writable fields of a user record.
type UserUpdate struct {
	Tier      string            `json:"tier"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// New creates a new System instance. The configuration is validated up
// front; a bad config fails here rather than at first use.
func New(s store.Store, cfg Config, opts ...Option) (*System, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cache.New(cache.Options{
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.TTL,
		MaxSize: cfg.Cache.MaxSize,
	})

	ranks := make(map[string]int, len(cfg.Tiers))
	for i, t := range cfg.Tiers {
		ranks[t.Name] = i
	}

	sys := &System{
		store:    s,
		cfg:      cfg,
		ranks:    ranks,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		cache:    c,
		users:    user.NewService(s, c),
		codes:    giftcode.NewService(s, c, cfg.CodePrefix),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(sys)
	}

	return sys, nil
}

// Option configures a System instance.
type Option func(*System)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
		s.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(s *System) {
		_ = s.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithSweepInterval overrides how often the expiry sweeper runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *System) {
		if d > 0 {
			s.cfg.SweepInterval = d
		}
	}
}

// Plugins returns the plugin registry for late registration.
func (s *System) Plugins() *plugin.Registry { return s.plugins }

// Config returns a copy of the active configuration.
func (s *System) Config() Config { return s.cfg }

// Start migrates the store and begins the expiry sweeper. Calling Start
// more than once is a no-op.
func (s *System) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		if merr := s.store.Migrate(ctx); merr != nil {
			err = fmt.Errorf("%w: %v", ErrMigrationFailed, merr)
			return
		}

		s.plugins.EmitInit(ctx, s)

		s.wg.Add(1)
		go s.sweepWorker(ctx)

		s.logger.Info("premium system started",
			"tiers", len(s.cfg.Tiers),
			"default_tier", s.cfg.DefaultTier,
			"sweep_interval", s.cfg.SweepInterval,
			"cache_enabled", s.cfg.Cache.Enabled,
		)
	})
	return err
}

// Stop shuts down the sweeper and closes the store. Calling Stop more
// than once is a no-op.
func (s *System) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		ctx := context.Background()
		s.plugins.EmitShutdown(ctx)

		s.cache.Clear()
		err = s.store.Close()
	})
	return err
}

// ──────────────────────────────────────────────────
// User Management
// ──────────────────────────────────────────────────

// SetUser writes a user's entitlement and emits an upgrade or downgrade
// notification when the tier rank changed. The tier must be configured.
func (s *System) SetUser(ctx context.Context, userID string, update UserUpdate) error {
	if !s.IsValidTier(update.Tier) {
		return fmt.Errorf("%w: %q", ErrTierInvalid, update.Tier)
	}

	unlock := s.lockUser(userID)
	defer unlock()

	return s.applyUser(ctx, userID, update)
}

// applyUser performs the read-old/write/emit sequence. Callers must
// hold the user's lock.
func (s *System) applyUser(ctx context.Context, userID string, update UserUpdate) error {
	oldUser, err := s.users.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}

	u := &user.User{
		ID:        userID,
		Tier:      update.Tier,
		ExpiresAt: update.ExpiresAt,
		Metadata:  update.Metadata,
	}
	u.UpdatedAt = time.Now().UTC()
	if oldUser != nil {
		u.CreatedAt = oldUser.CreatedAt
	} else {
		u.CreatedAt = u.UpdatedAt
	}

	if err := s.users.Set(ctx, u); err != nil {
		return err
	}
	if oldUser != nil && oldUser.Tier != u.Tier {
		s.users.Invalidate(userID, oldUser.Tier)
	}

	s.emitTierChange(ctx, userID, oldUser, u.Tier)
	return nil
}

func (s *System) emitTierChange(ctx context.Context, userID string, oldUser *user.User, newTier string) {
	if oldUser == nil || oldUser.Tier == newTier {
		return
	}

	oldRank := s.tierRank(oldUser.Tier)
	newRank := s.tierRank(newTier)
	switch {
	case newRank > oldRank:
		if !s.cfg.Events.DisableUpgraded {
			s.plugins.EmitUpgraded(ctx, userID, oldUser.Tier, newTier)
		}
	case newRank < oldRank:
		if !s.cfg.Events.DisableDowngraded {
			s.plugins.EmitDowngraded(ctx, userID, oldUser.Tier, newTier)
		}
	}
}

// GetUser returns a user's entitlement record.
func (s *System) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return s.users.Get(ctx, userID)
}

// RemoveUser deletes a user's entitlement record.
func (s *System) RemoveUser(ctx context.Context, userID string) error {
	unlock := s.lockUser(userID)
	defer unlock()

	return s.users.Remove(ctx, userID)
}

// HasTier reports whether the user holds requiredTier or a higher one.
// Unknown users have no tier at all.
func (s *System) HasTier(ctx context.Context, userID, requiredTier string) (bool, error) {
	if !s.IsValidTier(requiredTier) {
		return false, fmt.Errorf("%w: %q", ErrTierInvalid, requiredTier)
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	return s.tierRank(u.Tier) >= s.tierRank(requiredTier), nil
}

// HasFeature reports whether the user's tier unlocks feature. A tier
// listing "all" unlocks every feature.
func (s *System) HasFeature(ctx context.Context, userID, feature string) (bool, error) {
	if !s.IsValidFeature(feature) {
		return false, fmt.Errorf("%w: %q", ErrFeatureInvalid, feature)
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	t, ok := s.cfg.tier(u.Tier)
	if !ok {
		return false, nil
	}
	return featureListed(t.Features, feature), nil
}

// ListUsers returns all users.
func (s *System) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.users.List(ctx)
}

// UsersByTier returns all users holding exactly tier.
func (s *System) UsersByTier(ctx context.Context, tier string) ([]*user.User, error) {
	if !s.IsValidTier(tier) {
		return nil, fmt.Errorf("%w: %q", ErrTierInvalid, tier)
	}
	return s.users.ListByTier(ctx, tier)
}

// ExpiredUsers returns users whose entitlement has lapsed.
func (s *System) ExpiredUsers(ctx context.Context) ([]*user.User, error) {
	return s.users.ListExpired(ctx, time.Now().UTC())
}

// ──────────────────────────────────────────────────
// Gift Code Management
// ──────────────────────────────────────────────────

// CreateGiftCode generates and stores a new gift code, returning the
// code string. When no duration is given the tier's configured default
// applies.
func (s *System) CreateGiftCode(ctx context.Context, opts giftcode.CreateOptions) (string, error) {
	if !s.IsValidTier(opts.Tier) {
		return "", fmt.Errorf("%w: %q", ErrTierInvalid, opts.Tier)
	}

	if opts.Duration == "" {
		if t, ok := s.cfg.tier(opts.Tier); ok {
			opts.Duration = t.ExpiresIn
		}
	}

	code, err := s.codes.Create(ctx, opts)
	if err != nil {
		return "", err
	}

	s.plugins.EmitGiftCodeCreated(ctx, code, opts.Tier)
	return code, nil
}

// RedeemGiftCode validates and consumes a gift code for userID. On
// success the user is moved to the granted tier and a redemption
// notification is emitted; the tier write also emits the ordinary
// upgrade or downgrade notification.
func (s *System) RedeemGiftCode(ctx context.Context, userID, code string) (*giftcode.RedemptionResult, error) {
	// Custom validators run before the built-in checks.
	if validators := s.plugins.GiftCodeValidators(); len(validators) > 0 {
		g, err := s.codes.Get(ctx, code)
		if err != nil && !errors.Is(err, ErrCodeNotFound) {
			return nil, err
		}
		if g != nil {
			for _, v := range validators {
				if verr := v.ValidateGiftCode(ctx, userID, g); verr != nil {
					return &giftcode.RedemptionResult{Success: false, Reason: verr.Error()}, nil
				}
			}
		}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	oldUser, err := s.users.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	result, err := s.codes.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result, nil
	}

	metadata := map[string]string{}
	if oldUser != nil {
		for k, v := range oldUser.Metadata {
			metadata[k] = v
		}
	}
	metadata["giftCode"] = code
	metadata["redeemedAt"] = time.Now().UTC().Format(time.RFC3339)

	if err := s.applyUser(ctx, userID, UserUpdate{
		Tier:      result.Tier,
		ExpiresAt: result.ExpiresAt,
		Metadata:  metadata,
	}); err != nil {
		return nil, err
	}

	if !s.cfg.Events.DisableCodeRedeemed {
		s.plugins.EmitCodeRedeemed(ctx, userID, code, result.Tier, result.ExpiresAt)
	}

	return result, nil
}

// GetGiftCode returns a gift code record.
func (s *System) GetGiftCode(ctx context.Context, code string) (*giftcode.GiftCode, error) {
	return s.codes.Get(ctx, code)
}

// DisableGiftCode permanently disables a gift code.
func (s *System) DisableGiftCode(ctx context.Context, code string) error {
	if err := s.codes.Disable(ctx, code); err != nil {
		return err
	}

	s.plugins.EmitGiftCodeDisabled(ctx, code)
	return nil
}

// ListGiftCodes returns gift codes matching filter.
func (s *System) ListGiftCodes(ctx context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error) {
	return s.codes.List(ctx, filter)
}

// ──────────────────────────────────────────────────
// Tier and feature introspection
// ──────────────────────────────────────────────────

// IsValidTier reports whether tier is configured.
func (s *System) IsValidTier(tier string) bool {
	_, ok := s.ranks[tier]
	return ok
}

// tierRank returns the configured rank of tier, or -1 if unknown.
func (s *System) tierRank(tier string) int {
	r, ok := s.ranks[tier]
	if !ok {
		return -1
	}
	return r
}

// IsValidFeature reports whether any tier grants feature.
func (s *System) IsValidFeature(feature string) bool {
	for _, t := range s.cfg.Tiers {
		if featureListed(t.Features, feature) {
			return true
		}
	}
	return false
}

// FeaturesForTier returns the feature list configured for tier.
func (s *System) FeaturesForTier(tier string) ([]string, error) {
	t, ok := s.cfg.tier(tier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTierInvalid, tier)
	}
	return t.Features, nil
}

func featureListed(features []string, feature string) bool {
	for _, f := range features {
		if f == "all" || f == feature {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────
// Expiry sweeping
// ──────────────────────────────────────────────────

// SweepExpired demotes every user whose entitlement has lapsed to the
// default tier, emitting an expiry notification per user. Failures on
// individual users are logged and skipped; the returned count covers
// successful demotions only.
func (s *System) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()

	expired, err := s.users.ListExpired(ctx, start.UTC())
	if err != nil {
		return 0, err
	}

	demoted := 0
	for _, u := range expired {
		if err := s.demoteExpired(ctx, u); err != nil {
			s.logger.Error("failed to demote expired user",
				"user_id", u.ID,
				"tier", u.Tier,
				"error", err,
			)
			continue
		}
		demoted++
	}

	elapsed := time.Since(start)
	if len(expired) > 0 {
		s.logger.Info("expiry sweep completed",
			"expired", len(expired),
			"demoted", demoted,
			"elapsed", elapsed,
		)
	}
	s.plugins.EmitSweepCompleted(ctx, demoted, elapsed)

	return demoted, nil
}

// demoteExpired resets one lapsed user to the default tier through the
// same write path ordinary clients use.
func (s *System) demoteExpired(ctx context.Context, u *user.User) error {
	if !s.cfg.Events.DisableExpired {
		s.plugins.EmitExpired(ctx, u.ID, u.Tier)
	}

	metadata := map[string]string{}
	for k, v := range u.Metadata {
		metadata[k] = v
	}
	metadata["previousTier"] = u.Tier

	unlock := s.lockUser(u.ID)
	defer unlock()

	return s.applyUser(ctx, u.ID, UserUpdate{
		Tier:     s.cfg.DefaultTier,
		Metadata: metadata,
	})
}

// sweepWorker runs SweepExpired on a fixed interval until Stop. Sweep
// errors are logged, never propagated; a failed tick does not stop the
// worker.
func (s *System) sweepWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────
// Per-user locking
// ──────────────────────────────────────────────────

// lockUser acquires the stripe lock covering userID and returns its
// unlock func.
func (s *System) lockUser(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID)) //nolint:errcheck // fnv never fails
	mu := &s.userLocks[h.Sum32()%uint32(len(s.userLocks))]
	mu.Lock()
	return mu.Unlock
}
