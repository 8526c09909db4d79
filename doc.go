// Package premium provides an in-process premium-tier entitlement engine
// for Go applications.
//
// Premium is designed as a library, not a service. Import it directly into
// your Go application for maximum performance and flexibility. It provides:
//
//   - Sub-millisecond tier and feature checks with TTL/FIFO caching
//   - Ordered tier hierarchy with rank-based access checks
//   - Gift code generation, validation, and atomic redemption
//   - Automatic demotion of lapsed users by a background sweeper
//   - Pluggable lifecycle hooks for upgrades, downgrades, and expiry
//   - Backends for memory, SQLite, Postgres, and MongoDB via Grove
//
// # Quick Start
//
// Create a premium system with your preferred store:
//
//	import (
//	    "github.com/xraph/premium"
//	    "github.com/xraph/premium/store/postgres"
//	)
//
//	// Initialize store from a grove.DB
//	store := postgres.New(db)
//
//	// Create the system
//	sys, err := premium.New(store, premium.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start it (migrates the store, begins the expiry sweeper)
//	if err := sys.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sys.Stop()
//
// # Core Concepts
//
// Tiers define the entitlement ladder. Declaration order is rank order:
// a user holding a later tier passes checks for every earlier one.
//
//	cfg := premium.Config{
//	    Tiers: []premium.Tier{
//	        {Name: "free", Features: []string{"basic"}},
//	        {Name: "premium", ExpiresIn: "30d", Features: []string{"all"}},
//	    },
//	    DefaultTier: "free",
//	}
//
// Users hold exactly one tier, optionally time-limited:
//
//	err := sys.SetUser(ctx, "u-1", premium.UserUpdate{Tier: "premium"})
//	ok, err := sys.HasTier(ctx, "u-1", "premium")
//	ok, err = sys.HasFeature(ctx, "u-1", "advanced_search")
//
// Gift codes grant a tier for a duration on redemption:
//
//	code, err := sys.CreateGiftCode(ctx, giftcode.CreateOptions{
//	    Tier:     "premium",
//	    Duration: "7d",
//	    MaxUses:  10,
//	})
//	result, err := sys.RedeemGiftCode(ctx, "u-1", code)
//
// Redemption never returns an error for a bad code; it returns a result
// with Success false and a human-readable Reason, so callers can show
// the message directly.
//
// # Expiry
//
// Users whose entitlement lapses are moved back to the default tier by a
// periodic sweeper. The previous tier is preserved in the user's metadata
// under "previousTier". Sweeps can also be triggered manually with
// SweepExpired.
//
// # TypeID
//
// Gift code records use TypeID for globally unique, type-safe identifiers:
//
//	gift_01h2xcejqtf2nbrexx3vqjhp41
//
// The redeemable code string itself (GIFT-XXXX-XXXX) is separate and
// generated from an unambiguous alphabet.
package premium
