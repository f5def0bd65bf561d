package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientPoints = errors.New("insufficient points")

type PointsGrant struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`

	Amount      int64  `gorm:"not null"` // remaining unspent portion
	Description string `gorm:"not null"`

	ExpiresAt time.Time `gorm:"not null;index"`
	Consumed  bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PointsRedemption struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID uint `gorm:"not null;index"`
	GrantID       uint `gorm:"not null;index"`

	Amount   int64 `gorm:"not null"`
	Released bool  `gorm:"not null;default:false"`

	CreatedAt time.Time
}

type PointsDAO struct {
	db *gorm.DB
}

func NewPointsDAO(db *gorm.DB) *PointsDAO {
	return &PointsDAO{
		db: db,
	}
}

func (d *PointsDAO) InsertGrant(ctx context.Context, grant PointsGrant) (PointsGrant, error) {
	result := d.db.WithContext(ctx).Create(&grant)
	if result.Error != nil {
		return PointsGrant{}, result.Error
	}

	return grant, nil
}

func (d *PointsDAO) FindUsableGrants(ctx context.Context, userID uint, now time.Time) ([]PointsGrant, error) {
	var grants []PointsGrant
	result := d.db.WithContext(ctx).
		Where("user_id = ? AND consumed = false AND expires_at > ?", userID, now).
		Order("expires_at").
		Find(&grants)
	if result.Error != nil {
		return nil, result.Error
	}

	return grants, nil
}

func (d *PointsDAO) UsableBalance(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var balance int64
	result := d.db.WithContext(ctx).Model(&PointsGrant{}).
		Where("user_id = ? AND consumed = false AND expires_at > ?", userID, now).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance)
	if result.Error != nil {
		return 0, result.Error
	}

	return balance, nil
}

// reservePoints consumes exactly amount from the user's usable grants,
// oldest expiry first, inside tx. A grant that would overshoot keeps its
// remaining portion (and its expiry); only a fully drained grant is
// flagged consumed. One redemption row per touched grant ties the spend
// to the transaction so it can be reversed grant by grant.
func reservePoints(tx *gorm.DB, userID, transactionID uint, amount int64, now time.Time) error {
	if amount <= 0 {
		return nil
	}

	var grants []PointsGrant
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND consumed = false AND expires_at > ?", userID, now).
		Order("expires_at").
		Find(&grants).Error; err != nil {
		return err
	}

	remaining := amount
	for _, grant := range grants {
		if remaining == 0 {
			break
		}

		use := grant.Amount
		if use > remaining {
			use = remaining
		}

		grant.Amount -= use
		grant.Consumed = grant.Amount == 0
		if err := tx.Model(&PointsGrant{}).Where("id = ?", grant.ID).
			Updates(map[string]interface{}{"amount": grant.Amount, "consumed": grant.Consumed}).Error; err != nil {
			return err
		}

		redemption := PointsRedemption{
			TransactionID: transactionID,
			GrantID:       grant.ID,
			Amount:        use,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		remaining -= use
	}

	if remaining > 0 {
		return ErrInsufficientPoints
	}

	return nil
}

// releasePoints reverses every unreleased redemption of the transaction.
// Calling it again, or for a transaction that never reserved points, is
// a no-op.
func releasePoints(tx *gorm.DB, transactionID uint) error {
	var redemptions []PointsRedemption
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ? AND released = false", transactionID).
		Find(&redemptions).Error; err != nil {
		return err
	}

	for _, redemption := range redemptions {
		if err := tx.Model(&PointsGrant{}).Where("id = ?", redemption.GrantID).
			Updates(map[string]interface{}{
				"amount":   gorm.Expr("amount + ?", redemption.Amount),
				"consumed": false,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&PointsRedemption{}).Where("id = ?", redemption.ID).
			UpdateColumn("released", true).Error; err != nil {
			return err
		}
	}

	return nil
}
