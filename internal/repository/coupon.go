package repository

import (
	"context"
	"fmt"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
)

var (
	ErrCouponNotFound   = dao.ErrCouponNotFound
	ErrCouponCodeExists = dao.ErrCouponCodeExists
	ErrCouponExhausted  = dao.ErrCouponExhausted
)

type CouponDAO interface {
	Insert(ctx context.Context, coupon dao.Coupon) (dao.Coupon, error)
	FindByCode(ctx context.Context, code string) (dao.Coupon, error)
	FindByID(ctx context.Context, id uint) (dao.Coupon, error)
}

type CouponRepository struct {
	dao CouponDAO
}

func NewCouponRepository(dao CouponDAO) *CouponRepository {
	return &CouponRepository{
		dao: dao,
	}
}

func (r *CouponRepository) couponDomainToDAO(c domain.Coupon) dao.Coupon {
	return dao.Coupon{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		Scope:         string(c.Scope),
		OrganizerID:   c.OrganizerID,
		EventID:       c.EventID,
		OwnerUserID:   c.OwnerUserID,
		MinPurchase:   c.MinPurchase,
		MaxUses:       c.MaxUses,
		CurrentUses:   c.CurrentUses,
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (r *CouponRepository) couponDAOToDomain(c dao.Coupon) domain.Coupon {
	return domain.Coupon{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  domain.DiscountType(c.DiscountType),
		DiscountValue: c.DiscountValue,
		Scope:         domain.CouponScope(c.Scope),
		OrganizerID:   c.OrganizerID,
		EventID:       c.EventID,
		OwnerUserID:   c.OwnerUserID,
		MinPurchase:   c.MinPurchase,
		MaxUses:       c.MaxUses,
		CurrentUses:   c.CurrentUses,
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (r *CouponRepository) Create(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	coupon.Code = domain.NormalizeCouponCode(coupon.Code)

	created, err := r.dao.Insert(ctx, r.couponDomainToDAO(coupon))
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.couponDAOToDomain(created), nil
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	coupon, err := r.dao.FindByCode(ctx, domain.NormalizeCouponCode(code))
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("r.dao.FindByCode -> %w", err)
	}

	return r.couponDAOToDomain(coupon), nil
}

func (r *CouponRepository) FindByID(ctx context.Context, id uint) (domain.Coupon, error) {
	coupon, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.couponDAOToDomain(coupon), nil
}
