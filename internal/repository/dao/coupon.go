package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeExists = errors.New("coupon code already exists")
	ErrCouponExhausted  = errors.New("coupon usage limit reached")
)

type Coupon struct {
	ID uint `gorm:"primaryKey"`

	Code string `gorm:"unique;not null"` // stored upper-cased

	DiscountType  string `gorm:"not null"` // "percentage" or "fixed"
	DiscountValue int64  `gorm:"not null"`

	Scope       string `gorm:"not null"` // "system", "organizer" or "event"
	OrganizerID *uint  `gorm:"index"`
	EventID     *uint  `gorm:"index"`
	OwnerUserID *uint  `gorm:"index"` // set for referral-issued coupons

	MinPurchase int64 `gorm:"not null;default:0"`
	MaxUses     int   `gorm:"not null"`
	CurrentUses int   `gorm:"not null;default:0"`

	ValidFrom  time.Time `gorm:"not null"`
	ValidUntil time.Time `gorm:"not null"`
	IsActive   bool      `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CouponDAO struct {
	db *gorm.DB
}

func NewCouponDAO(db *gorm.DB) *CouponDAO {
	return &CouponDAO{
		db: db,
	}
}

func (d *CouponDAO) Insert(ctx context.Context, coupon Coupon) (Coupon, error) {
	result := d.db.WithContext(ctx).Create(&coupon)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_coupons_code"`) {
			return Coupon{}, ErrCouponCodeExists
		}

		return Coupon{}, result.Error
	}

	return coupon, nil
}

func (d *CouponDAO) FindByCode(ctx context.Context, code string) (Coupon, error) {
	var coupon Coupon
	result := d.db.WithContext(ctx).Where("code = ?", code).First(&coupon)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Coupon{}, ErrCouponNotFound
		}

		return Coupon{}, result.Error
	}

	return coupon, nil
}

func (d *CouponDAO) FindByID(ctx context.Context, id uint) (Coupon, error) {
	var coupon Coupon
	result := d.db.WithContext(ctx).First(&coupon, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Coupon{}, ErrCouponNotFound
		}

		return Coupon{}, result.Error
	}

	return coupon, nil
}

// incrementCouponUses bumps current_uses inside tx, guarded so two
// concurrent checkouts can never push it past max_uses.
func incrementCouponUses(tx *gorm.DB, couponID uint) error {
	result := tx.Model(&Coupon{}).
		Where("id = ? AND current_uses < max_uses", couponID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponExhausted
	}

	return nil
}

func decrementCouponUses(tx *gorm.DB, couponID uint) error {
	result := tx.Model(&Coupon{}).
		Where("id = ? AND current_uses > 0", couponID).
		UpdateColumn("current_uses", gorm.Expr("current_uses - 1"))

	return result.Error
}
