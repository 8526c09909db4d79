package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/premium/giftcode"
	premiumstore "github.com/xraph/premium/store"
	"github.com/xraph/premium/user"
)

// compile-time interface check
var _ premiumstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("premium/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("premium/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== User Store ====================

func (s *Store) SetUser(ctx context.Context, u *user.User) error {
	m := toUserModel(u)
	m.UpdatedAt = now()
	// Upsert keeps the original created_at on overwrite.
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("tier = EXCLUDED.tier").
		Set("expires_at = EXCLUDED.expires_at").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetUser(ctx context.Context, userID string) (*user.User, error) {
	m := new(userModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return fromUserModel(m), nil
}

func (s *Store) RemoveUser(ctx context.Context, userID string) error {
	res, err := s.sdb.NewDelete((*userModel)(nil)).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	var models []userModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromUserModels(models), nil
}

func (s *Store) ListUsersByTier(ctx context.Context, tier string) ([]*user.User, error) {
	var models []userModel
	err := s.sdb.NewSelect(&models).
		Where("tier = ?", tier).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromUserModels(models), nil
}

func (s *Store) ListExpiredUsers(ctx context.Context, nowT time.Time) ([]*user.User, error) {
	var models []userModel
	err := s.sdb.NewSelect(&models).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", nowT).
		OrderExpr("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromUserModels(models), nil
}

// ==================== Gift code Store ====================

func (s *Store) CreateGiftCode(ctx context.Context, g *giftcode.GiftCode) error {
	m := toGiftCodeModel(g)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return giftcode.ErrExists
		}
		return err
	}
	return nil
}

func (s *Store) GetGiftCode(ctx context.Context, code string) (*giftcode.GiftCode, error) {
	m := new(giftCodeModel)
	err := s.sdb.NewSelect(m).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, giftcode.ErrNotFound
		}
		return nil, err
	}
	return fromGiftCodeModel(m)
}

func (s *Store) UseGiftCode(ctx context.Context, code string) (bool, error) {
	// Conditional increment: never pushes used_count past max_uses, even
	// under concurrent redemption of the last use.
	res, err := s.sdb.NewUpdate((*giftCodeModel)(nil)).
		Set("used_count = used_count + 1").
		Set("updated_at = ?", now()).
		Where("code = ?", code).
		Where("used_count < max_uses").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	// Nothing updated: distinguish a missing code from an exhausted one.
	if _, err := s.GetGiftCode(ctx, code); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) DisableGiftCode(ctx context.Context, code string) error {
	res, err := s.sdb.NewUpdate((*giftCodeModel)(nil)).
		Set("disabled = ?", true).
		Set("updated_at = ?", now()).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return giftcode.ErrNotFound
	}
	return nil
}

func (s *Store) ListGiftCodes(ctx context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error) {
	var models []giftCodeModel
	q := s.sdb.NewSelect(&models)

	if filter.Tier != "" {
		q = q.Where("tier = ?", filter.Tier)
	}
	if filter.Disabled != nil {
		q = q.Where("disabled = ?", *filter.Disabled)
	}
	if filter.MaxUses != nil {
		q = q.Where("max_uses = ?", *filter.MaxUses)
	}
	if filter.UsedCount != nil {
		q = q.Where("used_count = ?", *filter.UsedCount)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*giftcode.GiftCode, len(models))
	for i := range models {
		g, err := fromGiftCodeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = g
	}
	return result, nil
}

// ==================== Helpers ====================

func fromUserModels(models []userModel) []*user.User {
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = fromUserModel(&models[i])
	}
	return result
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches SQLite's unique constraint error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
