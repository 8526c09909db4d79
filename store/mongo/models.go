package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/premium/giftcode"
	"github.com/xraph/premium/id"
	"github.com/xraph/premium/types"
	"github.com/xraph/premium/user"
)

// ==================== User models ====================

type userModel struct {
	grove.BaseModel `grove:"table:premium_users"`

	ID        string            `grove:"id,pk"      bson:"_id"`
	Tier      string            `grove:"tier"       bson:"tier"`
	ExpiresAt *time.Time        `grove:"expires_at" bson:"expires_at,omitempty"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:        u.ID,
		Tier:      u.Tier,
		ExpiresAt: u.ExpiresAt,
		Metadata:  u.Metadata,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) *user.User {
	return &user.User{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        m.ID,
		Tier:      m.Tier,
		ExpiresAt: m.ExpiresAt,
		Metadata:  m.Metadata,
	}
}

// ==================== Gift code models ====================

type giftCodeModel struct {
	grove.BaseModel `grove:"table:premium_gift_codes"`

	Code      string            `grove:"code,pk"    bson:"_id"`
	ID        string            `grove:"id"         bson:"id"`
	Tier      string            `grove:"tier"       bson:"tier"`
	Duration  string            `grove:"duration"   bson:"duration"`
	MaxUses   int               `grove:"max_uses"   bson:"max_uses"`
	UsedCount int               `grove:"used_count" bson:"used_count"`
	Disabled  bool              `grove:"disabled"   bson:"disabled"`
	ExpiresAt *time.Time        `grove:"expires_at" bson:"expires_at,omitempty"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
}

func toGiftCodeModel(g *giftcode.GiftCode) *giftCodeModel {
	return &giftCodeModel{
		Code:      g.Code,
		ID:        g.ID.String(),
		Tier:      g.Tier,
		Duration:  g.Duration,
		MaxUses:   g.MaxUses,
		UsedCount: g.UsedCount,
		Disabled:  g.Disabled,
		ExpiresAt: g.ExpiresAt,
		Metadata:  g.Metadata,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func fromGiftCodeModel(m *giftCodeModel) (*giftcode.GiftCode, error) {
	codeID, err := id.ParseGiftCodeID(m.ID)
	if err != nil {
		return nil, err
	}

	return &giftcode.GiftCode{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        codeID,
		Code:      m.Code,
		Tier:      m.Tier,
		Duration:  m.Duration,
		MaxUses:   m.MaxUses,
		UsedCount: m.UsedCount,
		Disabled:  m.Disabled,
		ExpiresAt: m.ExpiresAt,
		Metadata:  m.Metadata,
	}, nil
}
