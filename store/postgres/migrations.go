package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Premium store.
var Migrations = migrate.NewGroup("premium")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_premium_users",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS premium_users (
    id         TEXT PRIMARY KEY,
    tier       TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMPTZ,
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_premium_users_tier ON premium_users (tier);
CREATE INDEX IF NOT EXISTS idx_premium_users_expires ON premium_users (expires_at) WHERE expires_at IS NOT NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS premium_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_premium_gift_codes",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS premium_gift_codes (
    code       TEXT PRIMARY KEY,
    id         TEXT NOT NULL DEFAULT '',
    tier       TEXT NOT NULL DEFAULT '',
    duration   TEXT NOT NULL DEFAULT '',
    max_uses   INT NOT NULL DEFAULT 1,
    used_count INT NOT NULL DEFAULT 0,
    disabled   BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at TIMESTAMPTZ,
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_premium_gift_codes_tier ON premium_gift_codes (tier);
CREATE INDEX IF NOT EXISTS idx_premium_gift_codes_disabled ON premium_gift_codes (disabled);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS premium_gift_codes`)
				return err
			},
		},
	)
}
