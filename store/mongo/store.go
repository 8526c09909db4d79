package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/premium/giftcode"
	premiumstore "github.com/xraph/premium/store"
	"github.com/xraph/premium/user"
)

// Collection name constants.
const (
	colUsers     = "premium_users"
	colGiftCodes = "premium_gift_codes"
)

// compile-time interface check
var _ premiumstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all premium collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("premium/mongo: migrate %s indexes: %w", col, err)
		}
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

	// Upsert: $setOnInsert keeps the original created_at on overwrite.
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"tier":       m.Tier,
				"expires_at": m.ExpiresAt,
				"metadata":   m.Metadata,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("premium/mongo: set user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("premium/mongo: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) RemoveUser(ctx context.Context, userID string) error {
	res, err := s.mdb.NewDelete((*userModel)(nil)).
		Filter(bson.M{"_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("premium/mongo: remove user: %w", err)
	}
	if res.DeletedCount() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	var models []userModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("premium/mongo: list users: %w", err)
	}
	return fromUserModels(models), nil
}

func (s *Store) ListUsersByTier(ctx context.Context, tier string) ([]*user.User, error) {
	var models []userModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tier": tier}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("premium/mongo: list users by tier: %w", err)
	}
	return fromUserModels(models), nil
}

func (s *Store) ListExpiredUsers(ctx context.Context, nowT time.Time) ([]*user.User, error) {
	var models []userModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"expires_at": bson.M{"$ne": nil, "$lte": nowT}}).
		Sort(bson.D{{Key: "expires_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("premium/mongo: list expired users: %w", err)
	}
	return fromUserModels(models), nil
}

// ==================== Gift code Store ====================

func (s *Store) CreateGiftCode(ctx context.Context, g *giftcode.GiftCode) error {
	m := toGiftCodeModel(g)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return giftcode.ErrExists
		}
		return fmt.Errorf("premium/mongo: create gift code: %w", err)
	}
	return nil
}

func (s *Store) GetGiftCode(ctx context.Context, code string) (*giftcode.GiftCode, error) {
	var m giftCodeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, giftcode.ErrNotFound
		}
		return nil, fmt.Errorf("premium/mongo: get gift code: %w", err)
	}
	return fromGiftCodeModel(&m)
}

func (s *Store) UseGiftCode(ctx context.Context, code string) (bool, error) {
	// Conditional increment through a filtered $inc: the $expr guard
	// keeps used_count from overrunning max_uses under concurrency.
	res, err := s.mdb.Collection(colGiftCodes).UpdateOne(ctx,
		bson.M{
			"_id":   code,
			"$expr": bson.M{"$lt": bson.A{"$used_count", "$max_uses"}},
		},
		bson.M{
			"$inc": bson.M{"used_count": 1},
			"$set": bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("premium/mongo: use gift code: %w", err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}

	// Nothing updated: distinguish a missing code from an exhausted one.
	if _, err := s.GetGiftCode(ctx, code); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) DisableGiftCode(ctx context.Context, code string) error {
	res, err := s.mdb.NewUpdate((*giftCodeModel)(nil)).
		Filter(bson.M{"_id": code}).
		Set("disabled", true).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("premium/mongo: disable gift code: %w", err)
	}
	if res.MatchedCount() == 0 {
		return giftcode.ErrNotFound
	}
	return nil
}

func (s *Store) ListGiftCodes(ctx context.Context, filter giftcode.Filter) ([]*giftcode.GiftCode, error) {
	query := bson.M{}
	if filter.Tier != "" {
		query["tier"] = filter.Tier
	}
	if filter.Disabled != nil {
		query["disabled"] = *filter.Disabled
	}
	if filter.MaxUses != nil {
		query["max_uses"] = *filter.MaxUses
	}
	if filter.UsedCount != nil {
		query["used_count"] = *filter.UsedCount
	}

	var models []giftCodeModel
	err := s.mdb.NewFind(&models).
		Filter(query).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("premium/mongo: list gift codes: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all premium collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "tier", Value: 1}}},
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		colGiftCodes: {
			{Keys: bson.D{{Key: "tier", Value: 1}}},
			{Keys: bson.D{{Key: "disabled", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}
